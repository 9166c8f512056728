// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"bytes"
	"text/template"
)

var splitPromptTmpl = template.Must(template.New("split").Parse(`És um assistente jurídico especializado em legislação portuguesa. Divide o documento seguinte em preâmbulo e artigos.

Responde apenas com um objeto JSON com esta forma:
{
  "preamble_text": "texto introdutório antes do primeiro artigo, ou cadeia vazia",
  "articles": [
    {"article_number": "Artigo 1.º", "official_text": "texto integral do artigo"}
  ]
}

Regras:
- Mantém o texto oficial de cada artigo sem alterações.
- O preâmbulo termina onde começa o primeiro artigo.
- Preserva a ordem dos artigos tal como aparecem no documento.
- Não incluas texto fora do objeto JSON.

Documento:
{{.Content}}`))

func renderSplitPrompt(content string) (string, error) {
	var buf bytes.Buffer
	err := splitPromptTmpl.Execute(&buf, struct {
		Content string
	}{Content: content})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
