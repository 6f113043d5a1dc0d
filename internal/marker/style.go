package marker

// Style is the per-kind visual treatment of an individual marker element.
type Style struct {
	BorderColor [4]float32
	Badge       string
}

// StyleFor returns the border color and emoji badge for a kind.
func StyleFor(kind Kind) Style {
	switch kind {
	case KindPlant:
		return Style{BorderColor: rgb(0x22, 0xc5, 0x5e), Badge: "🌱"}
	case KindAnimal:
		return Style{BorderColor: rgb(0xf5, 0x9e, 0x0b), Badge: "🐾"}
	case KindLitter:
		return Style{BorderColor: rgb(0xef, 0x44, 0x44), Badge: "🗑️"}
	case KindCommunityEvent:
		return Style{BorderColor: rgb(0x3b, 0x82, 0xf6), Badge: "📅"}
	default:
		return Style{BorderColor: rgb(0x9c, 0xa3, 0xaf), Badge: "📍"}
	}
}

func rgb(r, g, b uint8) [4]float32 {
	return [4]float32{float32(r) / 255, float32(g) / 255, float32(b) / 255, 1}
}
