package render

import (
	"bytes"
	"fmt"
	"html/template"

	"stats-loader/internal/model"
)

const (
	// Heading precedes the product fragments.
	Heading = "<h3>Produits</h3>"
	// Currency is appended to every price.
	Currency = "€"
)

var statsTemplate = template.Must(template.New("stats").Parse(
	Heading +
		`{{range .}}<div class="prod"><b>{{.Filename}}</b> - Prix: {{.Price.String}}` + Currency + ` - Stock: {{.Available.String}}</div>{{end}}`,
))

// Stats renders the product list into a markup fragment. Nothing is returned
// unless the whole list rendered; a nil entry fails the render.
func Stats(products []*model.Product) (string, error) {
	var buf bytes.Buffer
	if err := statsTemplate.Execute(&buf, products); err != nil {
		return "", fmt.Errorf("render stats: %w", err)
	}
	return buf.String(), nil
}
