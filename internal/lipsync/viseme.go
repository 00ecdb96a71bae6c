// Package lipsync converts phonetic symbol streams into viseme sequences
// and timed mouth-shape keyframes for lip-sync animation.
package lipsync

import "strings"

// Viseme is a visual phoneme category, a class of mouth shape.
type Viseme string

const (
	VisemeNeutral Viseme = "NEUTRAL"

	// Vowels
	VisemeAA Viseme = "AA" // father
	VisemeAE Viseme = "AE" // cat
	VisemeAH Viseme = "AH" // but
	VisemeEH Viseme = "EH" // bed
	VisemeEY Viseme = "EY" // say
	VisemeIY Viseme = "IY" // beet
	VisemeIH Viseme = "IH" // bit
	VisemeOW Viseme = "OW" // boat
	VisemeAO Viseme = "AO" // bought
	VisemeUW Viseme = "UW" // boot
	VisemeUH Viseme = "UH" // book

	// Consonants
	VisemeBP Viseme = "B_P" // lips together
	VisemeFV Viseme = "F_V" // teeth on lip
	VisemeTH Viseme = "TH"  // tongue between teeth
	VisemeSZ Viseme = "S_Z" // teeth close
	VisemeSH Viseme = "SH"  // lips rounded
	VisemeCH Viseme = "CH"  // lips rounded + forward
	VisemeTD Viseme = "T_D" // tongue on teeth ridge
	VisemeL  Viseme = "L"   // tongue up
	VisemeR  Viseme = "R"   // lips rounded
	VisemeKG Viseme = "K_G" // mouth open
	VisemeW  Viseme = "W"   // lips rounded
	VisemeY  Viseme = "Y"   // tongue up front
	VisemeH  Viseme = "H"   // mouth open
)

// symbolToViseme maps IPA phoneme symbols to viseme categories.
// Anything not listed here resolves to VisemeNeutral.
var symbolToViseme = map[string]Viseme{
	"": VisemeNeutral,

	// Vowels
	"ɑ":  VisemeAA,
	"æ":  VisemeAE,
	"ʌ":  VisemeAH,
	"ə":  VisemeAH,
	"ɛ":  VisemeEH,
	"eɪ": VisemeEY,
	"i":  VisemeIY,
	"ɪ":  VisemeIH,
	"oʊ": VisemeOW,
	"ɔ":  VisemeAO,
	"u":  VisemeUW,
	"ʊ":  VisemeUH,

	// Consonants
	"b": VisemeBP, "p": VisemeBP, "m": VisemeBP,
	"f": VisemeFV, "v": VisemeFV,
	"θ": VisemeTH, "ð": VisemeTH,
	"s": VisemeSZ, "z": VisemeSZ,
	"ʃ": VisemeSH, "ʒ": VisemeSH,
	"tʃ": VisemeCH, "dʒ": VisemeCH,
	"t": VisemeTD, "d": VisemeTD, "n": VisemeTD,
	"l": VisemeL,
	"r": VisemeR,
	"k": VisemeKG, "g": VisemeKG, "ŋ": VisemeKG,
	"w": VisemeW,
	"j": VisemeY,
	"h": VisemeH,
}

// MapSymbol resolves a phonetic symbol to its viseme category.
// It is total: unmapped symbols, including whitespace, yield VisemeNeutral.
func MapSymbol(symbol string) Viseme {
	if v, ok := symbolToViseme[symbol]; ok {
		return v
	}
	return VisemeNeutral
}

// SymbolsToVisemes maps a phonetic symbol sequence to viseme categories.
// Whitespace symbols are dropped; every other symbol maps 1:1.
func SymbolsToVisemes(symbols []string) []Viseme {
	visemes := make([]Viseme, 0, len(symbols))
	for _, s := range symbols {
		if isWhitespaceSymbol(s) {
			continue
		}
		visemes = append(visemes, MapSymbol(s))
	}
	return visemes
}

func isWhitespaceSymbol(s string) bool {
	return s != "" && strings.TrimSpace(s) == ""
}

// ApproximateSymbols derives a phonetic symbol stream straight from text,
// for use when no phonemizer output is available. Letters become
// single-character symbols with th/ch/sh digraphs kept together;
// punctuation is dropped and word gaps become whitespace symbols.
func ApproximateSymbols(text string) []string {
	lower := strings.ToLower(text)
	symbols := make([]string, 0, len(lower))

	runes := []rune(lower)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == ' ' || r == '\n' || r == '\t' {
			symbols = append(symbols, " ")
			continue
		}
		if r < 'a' || r > 'z' {
			continue
		}

		if i < len(runes)-1 && r == 't' && runes[i+1] == 'h' {
			symbols = append(symbols, "θ")
			i++
			continue
		}
		if i < len(runes)-1 && r == 'c' && runes[i+1] == 'h' {
			symbols = append(symbols, "tʃ")
			i++
			continue
		}
		if i < len(runes)-1 && r == 's' && runes[i+1] == 'h' {
			symbols = append(symbols, "ʃ")
			i++
			continue
		}

		switch r {
		case 'a':
			symbols = append(symbols, "ɑ")
		case 'e':
			symbols = append(symbols, "ɛ")
		case 'o':
			symbols = append(symbols, "ɔ")
		case 'c', 'q', 'x':
			symbols = append(symbols, "k")
		case 'y':
			symbols = append(symbols, "j")
		default:
			symbols = append(symbols, string(r))
		}
	}

	return symbols
}

// Categories returns the closed set of viseme categories the mapper
// can produce, NEUTRAL included.
func Categories() []Viseme {
	seen := make(map[Viseme]struct{}, len(symbolToViseme))
	out := make([]Viseme, 0, len(symbolToViseme))
	for _, v := range symbolToViseme {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
