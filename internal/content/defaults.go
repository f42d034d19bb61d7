// Package content implements the document store for page content: named
// documents of nested sections, materialized from per-kind defaults on
// first access.
package content

import "errors"

var ErrUnknownKind = errors.New("unknown document kind")

// Known document kinds, one per admin-editable page or shared config unit.
const (
	KindAbout       = "about"
	KindContact     = "contact"
	KindContactInfo = "contact-info"
	KindGetQuote    = "get-quote"
	KindPortfolio   = "portfolio"
	KindPricing     = "pricing"
	KindServices    = "services"
	KindSettings    = "settings"
	KindTeams       = "teams"
)

// DefaultBody returns the default body for a document kind. Each call
// builds a fresh value, so callers can mutate the result freely without
// affecting later calls.
func DefaultBody(kind string) (map[string]any, error) {
	switch kind {
	case KindAbout:
		return map[string]any{
			"hero": map[string]any{
				"title":    "About Us",
				"subtitle": "Who we are and what drives us",
				"image":    "",
			},
			"story": map[string]any{
				"heading": "Our Story",
				"text":    "",
				"image":   "",
			},
			"stats": []any{
				map[string]any{"label": "Projects Delivered", "value": "0"},
				map[string]any{"label": "Happy Clients", "value": "0"},
				map[string]any{"label": "Years of Experience", "value": "0"},
			},
			"cta": map[string]any{
				"heading": "Ready to work with us?",
				"label":   "Get in touch",
				"link":    "/contact",
			},
		}, nil
	case KindContact:
		return map[string]any{
			"hero": map[string]any{
				"title":    "Contact",
				"subtitle": "We would love to hear from you",
			},
			"form": map[string]any{
				"heading":    "Send us a message",
				"buttonText": "Send",
			},
			"info": map[string]any{
				"heading": "Visit us",
				"text":    "",
			},
		}, nil
	case KindContactInfo:
		return map[string]any{
			"address":      "",
			"phone":        "",
			"email":        "",
			"mapUrl":       "",
			"workingHours": "Mon-Fri 9:00-17:00",
			"social": map[string]any{
				"facebook":  "",
				"instagram": "",
				"linkedin":  "",
				"twitter":   "",
			},
		}, nil
	case KindGetQuote:
		return map[string]any{
			"hero": map[string]any{
				"title":    "Get a Quote",
				"subtitle": "Tell us about your project",
			},
			"form": map[string]any{
				"heading":    "Project details",
				"buttonText": "Request quote",
			},
			"confirmation": map[string]any{
				"heading": "Thank you",
				"text":    "We will get back to you within one business day.",
			},
		}, nil
	case KindPortfolio:
		return map[string]any{
			"hero": map[string]any{
				"title":    "Portfolio",
				"subtitle": "Selected work",
			},
			"categories": []any{},
			"projects":   []any{},
		}, nil
	case KindPricing:
		return map[string]any{
			"hero": map[string]any{
				"title":    "Pricing",
				"subtitle": "Plans for every stage",
			},
			"plans": []any{},
			"faq":   []any{},
		}, nil
	case KindServices:
		return map[string]any{
			"hero": map[string]any{
				"title":    "Services",
				"subtitle": "What we do",
			},
			"services": []any{},
			"process": map[string]any{
				"heading": "How we work",
				"steps":   []any{},
			},
		}, nil
	case KindSettings:
		return map[string]any{
			"site": map[string]any{
				"name":    "Vitrine",
				"tagline": "",
				"logo":    "",
				"favicon": "",
			},
			"contact": map[string]any{
				"address": "",
				"phone":   "",
				"email":   "",
				"mapUrl":  "",
			},
			"social": map[string]any{
				"facebook":  "",
				"instagram": "",
				"linkedin":  "",
				"twitter":   "",
			},
			"footer": map[string]any{
				"text":      "",
				"copyright": "",
			},
			"email": map[string]any{
				"recipient": "",
				"subject":   "New website enquiry",
			},
		}, nil
	case KindTeams:
		return map[string]any{
			"hero": map[string]any{
				"title":    "Our Team",
				"subtitle": "The people behind the work",
			},
			"members": []any{},
		}, nil
	}
	return nil, ErrUnknownKind
}
