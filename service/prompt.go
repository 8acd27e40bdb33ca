package service

import (
	"fmt"
	"strings"

	"github.com/lacuradellauto/support-rag-be/types"
)

const (
	LanguageItalian = "italian"
	LanguageEnglish = "english"
)

// PromptBuilder turns retrieval results into a bounded context block
// and assembles the final prompt around it.
type PromptBuilder struct {
	// MaxContextChars bounds the formatted context block.
	MaxContextChars int
	// MaxPromptChars bounds the whole prompt, derived from the model
	// context window. When exceeded, the context is reformatted with a
	// smaller budget; the query is never cut.
	MaxPromptChars int
}

func NewPromptBuilder(maxContextChars, numCtx int) *PromptBuilder {
	return &PromptBuilder{
		MaxContextChars: maxContextChars,
		// Rough chars-per-token estimate; generation output space is
		// the model's concern via num_predict.
		MaxPromptChars: numCtx * 4,
	}
}

// Build formats the context and assembles the prompt, shrinking the
// context block if the total would exceed the prompt ceiling.
func (b *PromptBuilder) Build(tickets, guides []types.RetrievalResult, query, language string) string {
	context := FormatContext(tickets, guides, b.MaxContextChars)
	prompt := Assemble(context, query, language)
	if b.MaxPromptChars > 0 && len(prompt) > b.MaxPromptChars {
		overhead := len(prompt) - len(context)
		allowed := b.MaxPromptChars - overhead
		if allowed < 0 {
			allowed = 0
		}
		context = FormatContext(tickets, guides, allowed)
		prompt = Assemble(context, query, language)
	}
	return prompt
}

// FormatContext renders the two labeled sections. Documents are
// included whole or omitted: when the block would exceed maxChars,
// the lowest-ranked documents are dropped from the section tails
// (the larger section loses first, guides on a tie) until it fits.
// Identical inputs produce byte-identical output.
func FormatContext(tickets, guides []types.RetrievalResult, maxChars int) string {
	nTickets, nGuides := len(tickets), len(guides)
	for {
		block := renderContext(tickets[:nTickets], guides[:nGuides])
		if len(block) <= maxChars || (nTickets == 0 && nGuides == 0) {
			return block
		}
		if nGuides >= nTickets && nGuides > 0 {
			nGuides--
		} else {
			nTickets--
		}
	}
}

func renderContext(tickets, guides []types.RetrievalResult) string {
	var parts []string

	if len(tickets) > 0 {
		parts = append(parts, "=== HISTORICAL TICKETS ===\n")
		for i, result := range tickets {
			parts = append(parts, fmt.Sprintf("\n[TICKET %d]", i+1))
			parts = append(parts, "Subject: "+metaOr(result.Metadata, "subject", "N/A"))
			parts = append(parts, "Status: "+metaOr(result.Metadata, "status", "N/A"))
			parts = append(parts, "Content: "+result.Content)
			parts = append(parts, "")
		}
	}

	if len(guides) > 0 {
		parts = append(parts, "\n=== TECHNICAL GUIDES ===\n")
		for i, result := range guides {
			parts = append(parts, fmt.Sprintf("\n[GUIDE %d]", i+1))
			parts = append(parts, "Guide: "+metaOr(result.Metadata, "guide_title", "N/A"))

			switch result.Metadata["type"] {
			case "guide_tips":
				parts = append(parts, "Tipo: Note e Suggerimenti Pratici")
			case "guide_products":
				parts = append(parts, "Tipo: Prodotti Consigliati")
			default:
				if section := result.Metadata["section_title"]; section != "" {
					parts = append(parts, "Sezione: "+section)
				}
			}

			parts = append(parts, "Contenuto: "+result.Content)
			parts = append(parts, "")
		}
	}

	return strings.Join(parts, "\n")
}

func metaOr(metadata map[string]string, key, fallback string) string {
	if v, ok := metadata[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Assemble concatenates the system instruction, the formatted context
// and the customer question into the final prompt.
func Assemble(context, query, language string) string {
	if strings.ToLower(language) == LanguageEnglish {
		return fmt.Sprintf(promptTemplateEnglish, context, query)
	}
	return fmt.Sprintf(promptTemplateItalian, context, query)
}

const promptTemplateEnglish = `You are an expert AI assistant for LaCuraDellAuto customer support team. Your task is to help formulate professional and accurate responses to customer questions about car detailing products and techniques.

=== CONTEXT FROM KNOWLEDGE BASE ===
%s

=== CUSTOMER QUESTION ===
%s

=== INSTRUCTIONS ===
1. Carefully analyze the provided context (historical tickets and technical guides)
2. Formulate a clear, professional, and friendly response in English
3. **PRODUCTS**: When the question is about which product to use or how to solve a specific problem, recommend products from the context. DON'T force products if the question is purely informational
4. Cite techniques or steps from the guides when relevant
5. Use a friendly but professional tone, like an expert giving advice
6. Structure the response clearly (2-4 paragraphs, complete and detailed)
7. Make sure to complete all sentences and close the response professionally with a greeting
8. If the context doesn't contain sufficient information, say so clearly and suggest checking the catalog on the website
9. IMPORTANT: Use ONLY products mentioned in the context - do not invent product names

=== YOUR RESPONSE ===`

const promptTemplateItalian = `Sei un assistente AI esperto per il team di supporto clienti di LaCuraDellAuto. Il tuo compito è aiutare a formulare risposte professionali e accurate alle domande dei clienti riguardo prodotti e tecniche di car detailing.

=== CONTESTO DALLA BASE DI CONOSCENZA ===
%s

=== DOMANDA DEL CLIENTE ===
%s

=== ISTRUZIONI ===
1. Analizza attentamente il contesto fornito (ticket storici e guide tecniche)
2. Formula una risposta chiara, professionale e cordiale in italiano
3. **PRODOTTI**: Quando la domanda riguarda quale prodotto usare o come risolvere un problema specifico, raccomanda prodotti dal contesto. NON forzare prodotti se la domanda è solo informativa
4. Cita tecniche o passaggi dalle guide quando rilevante
5. Usa un tono amichevole ma professionale, come un esperto che consiglia
6. Struttura la risposta in modo chiaro (2-4 paragrafi, completa e dettagliata)
7. Assicurati di completare tutte le frasi e di chiudere la risposta in modo professionale con un saluto
8. Se il contesto non contiene informazioni sufficienti, dillo chiaramente e suggerisci di consultare il catalogo sul sito
9. IMPORTANTE: Usa SOLO prodotti menzionati nel contesto - non inventare nomi di prodotti

=== LA TUA RISPOSTA ===`
