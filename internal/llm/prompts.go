package llm

import (
	"fmt"
	"strings"
)

// Sampling temperatures per task.
const (
	classifyTemperature = 0.1
	defineTemperature   = 0.3
	menuTemperature     = 0.3
)

// unrecognizedTerm is what the model is told to answer when an image holds no
// readable text.
const unrecognizedTerm = "unrecognizable"

func str(desc string) *Schema {
	return &Schema{Type: TypeString, Description: desc}
}

var classificationSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"term":         str("the word or phrase being classified, exactly as given"),
		"is_financial": {Type: TypeBoolean, Description: "whether it is a financial term"},
	},
	Required: []string{"term", "is_financial"},
}

var batchClassificationSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"results": {Type: TypeArray, Items: classificationSchema},
	},
	Required: []string{"results"},
}

var definitionSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"term":       str("the term or sentence being explained"),
		"definition": str("a plain-language explanation for a bank customer"),
		"category":   str("the banking area it belongs to, e.g. deposits, loans, account management"),
	},
	Required: []string{"term", "definition", "category"},
}

var categorySchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"category":    str("the chosen category name, copied from the list"),
		"description": str("what the category offers"),
	},
	Required: []string{"category", "description"},
}

var menuSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"selected_menu":   str("the chosen menu name, copied from the list"),
		"description":     str("what the menu does and when to use it"),
		"candidate_menus": {Type: TypeArray, Items: str("another plausible menu from the list")},
	},
	Required: []string{"selected_menu", "description", "candidate_menus"},
}

func classifySystemPrompt() string {
	return `You classify words and phrases found on a bank's website.
A term is financial when a typical customer browsing the site would find it hard to understand and would want an explanation of it.
Everyday words, navigation labels and names are not financial terms.
Echo every term exactly as it was given to you.`
}

func classifyPrompt(term string) string {
	return fmt.Sprintf("Classify whether this word or phrase is a financial term: %s", term)
}

func batchClassifyPrompt(terms []string) string {
	return fmt.Sprintf("Classify whether each of these words or phrases is a financial term. Return one result per term: %s",
		strings.Join(terms, ", "))
}

func defineSystemPrompt(language string) string {
	return fmt.Sprintf(`You explain financial terms to customers of a bank's website.
Write in %s for someone without a finance background:
1. Rephrase jargon in everyday words.
2. Include a short example of when the customer would meet the term.
3. Take the customer's point of view.
4. Keep it brief and focused on the essentials.`, language)
}

func defineTextPrompt(term string) string {
	return fmt.Sprintf("Explain the meaning of this term: %s", term)
}

func defineImagePrompt() string {
	return fmt.Sprintf(`Explain the text recognized in this image.
If the text forms a sentence, explain the sentence.
If several separate texts are visible, pick the term or sentence the customer most likely finds difficult.
If no text is visible or it cannot be read, set term to %q.`, unrecognizedTerm)
}

func menuSystemPrompt(language string) string {
	return fmt.Sprintf(`You guide customers through a bank's website menus.
Pick the menu that best serves the customer's request, first choosing a top-level category and then one of its menus.
Only ever answer with names copied exactly from the lists you are given.
Describe the chosen entry in %s from the customer's point of view, briefly, with a usage example.`, language)
}

func categoryPrompt(request string, categories []string) string {
	return fmt.Sprintf("Customer request: %s\n\nFirst choose the category that fits the request.\n\nAvailable categories:\n%s",
		request, bulletList(categories))
}

func categoryReply(category, description string) string {
	return fmt.Sprintf("Category: %s\n\nAbout this category: %s", category, description)
}

func menuPrompt(category string, menus []string) string {
	return fmt.Sprintf(`Category: %s

Choose the menu in this category that fits the request.
If several menus could be what the customer wants, put the best one in selected_menu and the others in candidate_menus.

Available menus:
%s`, category, bulletList(menus))
}

func bulletList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
