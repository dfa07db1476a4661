package main

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const analyzePrompt = `Analyse cette photo de grille de mots croisés.

Extrais la position des cases noires au format JSON suivant :
{
  "rows": <nombre de lignes>,
  "cols": <nombre de colonnes>,
  "cells": [
    [{"black": true}, {"black": false}, ...],
    ...
  ]
}

Règles :
- Une case noire (bloquée) a "black": true.
- Une case blanche, même numérotée ou remplie, a "black": false.
- Ignore les numéros et les lettres.
- Réponds UNIQUEMENT avec le JSON, sans commentaire ni markdown.`

// AnalyzeImage sends an image to Gemini Flash and returns the blocking pattern.
func (g *GeminiClient) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Pattern, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: analyzePrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: imageData}},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.1)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}
	return parsePattern(text)
}
