package gfc

// Classify returns the forest change code of one pixel. Rules are evaluated
// in order and a later match overrides an earlier one; a pixel no rule
// matches is Masked.
func Classify(p Params, cover, loss, gain uint8) Code {
	if cover == TreecoverNoData {
		return Masked
	}
	if loss == LossNoData {
		loss = 0
	}

	y0 := p.StartYear - BaseYear
	y1 := p.EndYear - BaseYear
	ly := int(loss)

	if int(cover) <= p.Threshold {
		switch gain {
		case 1:
			return Gain
		case 0:
			return NonForest
		}
		return Masked
	}

	code := Masked
	inWindow := ly >= y0 && ly <= y1
	if ly < y0 {
		code = NonForest
	}
	if ly > y1 {
		code = StableForest
	}
	if gain == 1 && inWindow {
		code = GainLoss
	}
	if gain == 1 && ly == 0 {
		code = Gain
	}
	if gain == 0 && inWindow {
		code = Code(loss)
	}
	if gain == 0 && ly == 0 {
		code = StableForest
	}
	return code
}

// ClassifyStack classifies every pixel of s.
func ClassifyStack(s *Stack, p Params) *Raster {
	r := NewRaster(s.Grid)
	for i := range r.Data {
		r.Data[i] = Classify(p, s.Treecover[i], s.Lossyear[i], s.Gain[i])
	}
	return r
}
