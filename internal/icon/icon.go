// Package icon generates the application logo with a Gemini image model.
package icon

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the image capable model used when none is configured.
const DefaultModel = "gemini-2.5-flash-image"

// Prompt describes the logo; it is kept in Spanish like the rest of the UI.
const Prompt = "Crea un logo profesional y sofisticado para una aplicación financiera que rastrea los gastos de combustible. " +
	"El diseño debe ser un emblema abstracto y elegante, que incorpore sutilmente elementos como una gota estilizada " +
	"(representando el combustible) y una línea de gráfico o flecha ascendente (representando ahorros/eficiencia). " +
	"Utiliza una paleta de colores moderna con un degradado de verde esmeralda profundo, gris carbón y un toque plateado " +
	"para una sensación premium. El logo debe ser un vector limpio y escalable, adecuado para el ícono de una aplicación móvil."

// ErrNoImage means the model answered without any inline image.
var ErrNoImage = errors.New("model returned no image")

// ContentGenerator is implemented by *genai.Models.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Image is a generated picture.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURI embeds the image for an <img src>.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Generator produces icons.
type Generator struct {
	models ContentGenerator
	model  string
}

// New creates a Gemini API client authenticated with apiKey.
func New(ctx context.Context, apiKey, model string) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Gemini API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewWithModels(client.Models, model), nil
}

// NewWithModels builds a generator on any ContentGenerator.
func NewWithModels(models ContentGenerator, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{models: models, model: model}
}

// Generate asks the model for the logo and returns the first inline image.
func (g *Generator) Generate(ctx context.Context) (Image, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(Prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return Image{}, fmt.Errorf("generate content: %w", err)
	}
	return firstImage(resp)
}

func firstImage(resp *genai.GenerateContentResponse) (Image, error) {
	if resp == nil {
		return Image{}, ErrNoImage
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
				continue
			}
			mime := p.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return Image{Data: p.InlineData.Data, MIMEType: mime}, nil
		}
	}
	return Image{}, ErrNoImage
}
