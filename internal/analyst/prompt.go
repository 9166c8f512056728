// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyst

import (
	"bytes"
	"strings"
	"text/template"
)

// itemPromptTmpl asks for the structured analysis of one preamble or
// article. The prompt is Portuguese because the corpus and the expected
// summaries are; the JSON keys stay English to match the wire types.
var itemPromptTmpl = template.Must(template.New("item").Parse(`És um jurista especializado em legislação portuguesa. Analisa o seguinte conteúdo ({{.Label}}) de um diploma legal.

Responde apenas com um objeto JSON com estas chaves:
- "tags": objeto com as listas de strings "person", "organization" e "concept" — pessoas, organizações e conceitos mencionados no texto
- "informal_summary_title": título curto e informal, em português europeu
- "informal_summary": resumo informal de 2 a 4 frases, em português europeu
- "cross_references": lista de objetos, um por referência a outro diploma ou artigo, cada um com:
  - "relationship": "cites", "amends" ou "revokes"
  - "type": tipo do diploma referido (ex.: "Decreto-Lei")
  - "number": número oficial do diploma referido (ex.: "41/2023")
  - "article_number": artigo referido, se houver (ex.: "5.º")
  - "url": URL do diploma referido, se constar do texto

Não incluas texto fora do objeto JSON.
{{if .KnownTags}}
Tags já existentes (reutiliza sempre que aplicável): {{.KnownTags}}
{{end}}
Conteúdo:
{{.Content}}
`))

// chunkPromptTmpl drives the legacy chunk-level pass.
var chunkPromptTmpl = template.Must(template.New("chunk").Parse(`Analisa o seguinte excerto (parte {{.Part}}) de um documento legal português.

Responde apenas com um objeto JSON com estas chaves:
- "summary_pt": resumo do excerto em português europeu
- "key_takeaway_pt": a ideia principal numa única frase
- "suggested_tags": tags sugeridas, separadas por vírgulas

Não incluas texto fora do objeto JSON.

Excerto:
{{.Content}}
`))

// reducePromptTmpl turns the per-article summaries into one law-level
// summary plus a category suggestion from the master list.
var reducePromptTmpl = template.Must(template.New("reduce").Parse(`Os resumos seguintes descrevem, artigo a artigo, um diploma legal português. Produz uma síntese do diploma completo.

Responde apenas com um objeto JSON com estas chaves:
- "suggested_category_id": exatamente uma de: {{.Categories}}
- "informal_summary_title": título informal do diploma, em português europeu
- "informal_summary": resumo informal do diploma em 3 a 6 frases, em português europeu

Não incluas texto fora do objeto JSON.

Resumos dos artigos:
{{.Summaries}}
`))

// batchPromptTmpl condenses a batch of article summaries when the full
// set would not fit a single reduce call.
var batchPromptTmpl = template.Must(template.New("batch").Parse(`Condensa os resumos seguintes num único parágrafo coeso em português europeu, preservando os pontos essenciais.

Responde apenas com um objeto JSON com a chave "batch_summary".

Resumos:
{{.Summaries}}
`))

var translatePromptTmpl = template.Must(template.New("translate").Parse(`Traduz para inglês o título e o resumo seguintes, mantendo o tom informal.

Responde apenas com um objeto JSON com as chaves "informal_summary_title" e "informal_summary".

Título: {{.Title}}
Resumo: {{.Summary}}
`))

var tagsPromptTmpl = template.Must(template.New("tags").Parse(`Traduz para inglês as tags seguintes. Mantém nomes próprios inalterados.

Responde apenas com um objeto JSON com a chave "tags", um objeto com as listas de strings "person", "organization" e "concept".

Tags:
{{.Tags}}
`))

func renderItemPrompt(label, content string, knownTags []string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Label     string
		Content   string
		KnownTags string
	}{Label: label, Content: content, KnownTags: strings.Join(knownTags, ", ")}
	if err := itemPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderChunkPrompt(part int, content string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Part    int
		Content string
	}{Part: part, Content: content}
	if err := chunkPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderReducePrompt(categories []string, summaries string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Categories string
		Summaries  string
	}{Categories: strings.Join(categories, ", "), Summaries: summaries}
	if err := reducePromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderBatchPrompt(summaries string) (string, error) {
	var buf bytes.Buffer
	if err := batchPromptTmpl.Execute(&buf, struct{ Summaries string }{Summaries: summaries}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderTranslatePrompt(title, summary string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Title   string
		Summary string
	}{Title: title, Summary: summary}
	if err := translatePromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderTagsPrompt(tags string) (string, error) {
	var buf bytes.Buffer
	if err := tagsPromptTmpl.Execute(&buf, struct{ Tags string }{Tags: tags}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
