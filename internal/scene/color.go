package scene

// #region hsv
// HSVToRGB converts normalized hue, saturation and value (each in [0,1]) to
// normalized red, green, blue (each in [0,1]).
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - s*f)
	t := v * (1.0 - s*(1.0-f))
	switch ((i % 6) + 6) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// RGBFromHSV converts an image-editor HSV triple (hue in degrees [0,360],
// saturation and value in percent [0,100]) to channels scaled to [0,255].
func RGBFromHSV(hDeg, sPct, vPct float64) RGB {
	r, g, b := HSVToRGB(hDeg/360.0, sPct/100.0, vPct/100.0)
	return RGB{255 * r, 255 * g, 255 * b}
}

// #endregion hsv
