package hydro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLevel(t *testing.T) {
	assert.NoError(t, ValidateLevel(1))
	assert.NoError(t, ValidateLevel(8))
	assert.NoError(t, ValidateLevel(12))
	assert.Error(t, ValidateLevel(0))
	assert.Error(t, ValidateLevel(13))
}

func TestIDs_Sorted(t *testing.T) {
	cs := []Catchment{{ID: 30}, {ID: 10}, {ID: 20}}
	assert.Equal(t, []int64{10, 20, 30}, IDs(cs))
	assert.Empty(t, IDs(nil))
}

func TestFilter_PreservesOrder(t *testing.T) {
	cs := network()
	got := Filter(cs, []int64{104, 100, 999})
	if assert.Len(t, got, 2) {
		assert.Equal(t, int64(100), got[0].ID)
		assert.Equal(t, int64(104), got[1].ID)
	}
}

func TestProperties_UpperCaseKeys(t *testing.T) {
	c := network()[1]
	props := c.Properties()
	assert.Equal(t, int64(101), props["HYBAS_ID"])
	assert.Equal(t, int64(100), props["NEXT_DOWN"])
	assert.Equal(t, 35.0, props["UP_AREA"])
	assert.Len(t, props, 13)
}
