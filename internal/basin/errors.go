package basin

import "github.com/rotisserie/eris"

// User-facing errors.
var (
	ErrNoSubcatchment     = eris.New("basin: select at least one subcatchment")
	ErrNoAOI              = eris.New("basin: set a marker before resolving the basin")
	ErrNotResolved        = eris.New("basin: upstream catchments not resolved")
	ErrInvalidCoordinates = eris.New("basin: invalid coordinates")
	ErrInvalidMethod      = eris.New("basin: invalid selection method")
)
