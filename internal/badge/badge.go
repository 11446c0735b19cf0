// Package badge renders per-city PNG status badges colored by alert level,
// suitable for embedding in dashboards and READMEs.
package badge

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/lmackenzie/smokewatch/internal/detect"
	"github.com/lmackenzie/smokewatch/internal/models"
)

const (
	badgeWidth  = 260
	badgeHeight = 60
	labelWidth  = 110
)

// Render draws a two-panel badge: city name on a neutral left panel, alert
// level and expected PM2.5 on a right panel filled with the level color.
func Render(d models.CityAlertDecision) ([]byte, error) {
	levelColor, err := parseHex(d.LevelHex)
	if err != nil {
		return nil, fmt.Errorf("badge for %s: %w", d.City, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, badgeWidth, badgeHeight))

	grey := color.RGBA{85, 85, 85, 255}
	draw.Draw(img, image.Rect(0, 0, labelWidth, badgeHeight), image.NewUniform(grey), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(labelWidth, 0, badgeWidth, badgeHeight), image.NewUniform(levelColor), image.Point{}, draw.Src)

	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{17, 17, 17, 255}
	statusText := white
	if textColorFor(d.LevelName) == "black" {
		statusText = black
	}

	drawText(img, d.City, 10, 26, white)
	drawText(img, "PM2.5", 10, 46, white)

	drawText(img, d.LevelName, labelWidth+10, 26, statusText)
	drawText(img, fmt.Sprintf("%.1f µg/m³", d.WeightedPM25), labelWidth+10, 46, statusText)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode badge: %w", err)
	}
	return buf.Bytes(), nil
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// textColorFor returns the readable text color for a named alert band. The
// darker bands carry white text.
func textColorFor(levelName string) string {
	for _, lvl := range detect.Levels {
		if lvl.Name == levelName {
			return lvl.TextColor
		}
	}
	return "white"
}

// parseHex decodes a #rrggbb color string.
func parseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{r, g, b, 255}, nil
}
