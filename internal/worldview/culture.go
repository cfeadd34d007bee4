package worldview

import (
	"context"
	"fmt"
	"strings"
)

// notAvailable fills every field of the fallback template.
const notAvailable = "N/A"

// FallbackTemplate is returned for any country code outside the table.
var FallbackTemplate = CultureTemplate{Food: notAvailable, Greeting: notAvailable, Etiquette: notAvailable}

var cultureTemplates = map[string]CultureTemplate{
	"JP": {Food: "Sushi 🍣", Greeting: "こんにちは", Etiquette: "Bowing 🙇‍♂️"},
	"CN": {Food: "Hotpot 🍲", Greeting: "你好", Etiquette: "Offer items with both hands 🤲"},
	"US": {Food: "Burger 🍔", Greeting: "Hello", Etiquette: "Tipping 💵"},
	"FR": {Food: "Escargot 🐌", Greeting: "Bonjour", Etiquette: "La bise 😘"},
	"KR": {Food: "Kimchi 🥬", Greeting: "안녕하세요", Etiquette: "Two hands when pouring 🍶"},
	"IT": {Food: "Pizza 🍕", Greeting: "Ciao", Etiquette: "No cappuccino after noon ☕"},
	"GB": {Food: "Fish and chips 🐟", Greeting: "Hello", Etiquette: "Queueing 🚶"},
	"DE": {Food: "Bratwurst 🌭", Greeting: "Hallo", Etiquette: "Punctuality ⏰"},
	"ES": {Food: "Paella 🥘", Greeting: "Hola", Etiquette: "Late dinners 🌙"},
	"IN": {Food: "Biryani 🍛", Greeting: "नमस्ते", Etiquette: "Eat with the right hand ✋"},
	"MX": {Food: "Tacos 🌮", Greeting: "Hola", Etiquette: "Handshake greeting 🤝"},
	"TH": {Food: "Pad Thai 🍜", Greeting: "สวัสดี", Etiquette: "The wai 🙏"},
}

// LookupTemplate returns the culture template for a country code. It is
// total: unknown codes yield FallbackTemplate.
func LookupTemplate(code string) CultureTemplate {
	if t, ok := cultureTemplates[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return t
	}
	return FallbackTemplate
}

// Enricher combines upstream country metadata with the local culture table.
type Enricher struct {
	countries CountryProvider
}

// NewEnricher creates an Enricher backed by countries.
func NewEnricher(countries CountryProvider) *Enricher {
	return &Enricher{countries: countries}
}

// Enrich fetches the country profile for code.
func (e *Enricher) Enrich(ctx context.Context, code string) (CountryProfile, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return CountryProfile{}, fmt.Errorf("%w: invalid country code %q", ErrNotFound, code)
	}
	return e.countries.Country(ctx, code)
}

// LookupTemplate is the pure table lookup; it never fails.
func (e *Enricher) LookupTemplate(code string) CultureTemplate {
	return LookupTemplate(code)
}
