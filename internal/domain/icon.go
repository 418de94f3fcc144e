package domain

import "strings"

// Icon is the closed set of symbols a service card can show.
type Icon string

const (
	IconShare2     Icon = "Share2"
	IconTarget     Icon = "Target"
	IconPalette    Icon = "Palette"
	IconVideo      Icon = "Video"
	IconCamera     Icon = "Camera"
	IconTrendingUp Icon = "TrendingUp"
	IconMonitor    Icon = "Monitor"
	IconGlobe      Icon = "Globe"
	IconSmartphone Icon = "Smartphone"
	IconBarChart3  Icon = "BarChart3"

	// DefaultIcon is used for empty or unknown names.
	DefaultIcon = IconTarget
)

var icons = []Icon{
	IconShare2, IconTarget, IconPalette, IconVideo, IconCamera,
	IconTrendingUp, IconMonitor, IconGlobe, IconSmartphone, IconBarChart3,
}

// Icons returns every known icon in picker order.
func Icons() []Icon {
	return append([]Icon(nil), icons...)
}

// ParseIcon maps a stored icon_name to an Icon. Matching ignores case.
func ParseIcon(name string) Icon {
	name = strings.TrimSpace(name)
	for _, icon := range icons {
		if strings.EqualFold(string(icon), name) {
			return icon
		}
	}
	return DefaultIcon
}

// Glyph is the character rendered for the icon.
func (i Icon) Glyph() string {
	switch i {
	case IconShare2:
		return "⤴"
	case IconPalette:
		return "🎨"
	case IconVideo:
		return "🎬"
	case IconCamera:
		return "📷"
	case IconTrendingUp:
		return "📈"
	case IconMonitor:
		return "🖥"
	case IconGlobe:
		return "🌐"
	case IconSmartphone:
		return "📱"
	case IconBarChart3:
		return "📊"
	default:
		return "🎯"
	}
}

// Class is the CSS class for the icon.
func (i Icon) Class() string {
	return "icon-" + strings.ToLower(string(i))
}
