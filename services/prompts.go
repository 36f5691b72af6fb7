package services

import (
	"fmt"
	"strings"

	"github.com/ichakraborty/docquery/models"
)

// Persona describes the role an LLM call is asked to play. Rendered into the
// system instruction of each generation request.
type Persona struct {
	Role      string
	Goal      string
	Backstory string
}

// System renders the persona as a system instruction.
func (p Persona) System() string {
	return fmt.Sprintf(`You are a %s.

Your goal: %s

Background: %s

Always provide helpful, accurate, and well-structured responses.`, p.Role, p.Goal, p.Backstory)
}

var retrievalPersona = Persona{
	Role: "Document Retrieval Specialist",
	Goal: "Find and retrieve the most relevant document chunks to answer user queries accurately",
	Backstory: "You are an expert at understanding user queries and finding the most " +
		"relevant information from a knowledge base. You excel at semantic search and " +
		"understanding context. You always strive to find the best matching documents " +
		"that will help answer the user's question comprehensively.",
}

var responsePersona = Persona{
	Role: "Knowledge Synthesizer",
	Goal: "Synthesize retrieved information into clear, accurate, and helpful responses",
	Backstory: "You are a skilled communicator who excels at understanding complex " +
		"information and presenting it in a clear, accessible way. You always cite your " +
		"sources and provide accurate information based on the retrieved documents. " +
		"You are careful to only provide information that is supported by the sources " +
		"and clearly indicate when information might be incomplete or uncertain.",
}

var analyzerPersona = Persona{
	Role: "Document Analyzer",
	Goal: "Analyze documents to extract key insights, summaries, and important points",
	Backstory: "You are an expert at analyzing documents and extracting valuable " +
		"insights. You can identify key themes, important facts, and summarize complex " +
		"content effectively. You help users understand the overall content and structure " +
		"of their documents.",
}

// analysisTask builds the first-stage prompt: sift the retrieved chunks for
// what actually answers the query.
func analysisTask(query string, hits []models.SearchHit) string {
	contextParts := make([]string, 0, len(hits))
	for i, hit := range hits {
		contextParts = append(contextParts,
			fmt.Sprintf("[Source %d: %s, Page %d]\n%s", i+1, hit.Source, hit.Page, hit.Text))
	}
	context := strings.Join(contextParts, "\n\n---\n\n")

	return fmt.Sprintf(`Analyze the following retrieved document chunks to answer this query:

Query: %s

Your job is to:
1. Identify which chunks are most relevant to the query
2. Extract the key information that answers the question
3. Note any gaps or missing information
4. Organize the relevant information logically

Context:
%s`, query, context)
}

// synthesisTask builds the second-stage prompt: turn the analysis into the
// final cited answer.
func synthesisTask(query, analysis, sourceList string) string {
	return fmt.Sprintf(`Based on the analysis provided, create a comprehensive response to the user's query.

Query: %s

Analysis of retrieved documents:
%s

Available sources: %s

Your response should:
1. Directly answer the user's question
2. Include relevant details and context
3. Cite sources when mentioning specific information (e.g., "According to document.pdf...")
4. Be clear and well-organized
5. Acknowledge if the answer is incomplete or uncertain based on available information`, query, analysis, sourceList)
}

// analyzeDocumentTask builds the prompt for summarizing one uploaded
// document from its leading chunks.
func analyzeDocumentTask(source string, texts []string) string {
	combined := strings.Join(texts, "\n\n---\n\n")

	return fmt.Sprintf(`Analyze this document and provide a comprehensive summary:

Document: %s

Content:
%s

Provide:
1. Main topics and themes
2. Key facts and takeaways
3. Brief overall summary
4. Notable insights or important details`, source, combined)
}

// rephraseSystemPrompt turns short or vague user input into a full retrieval
// query before it hits the index.
const rephraseSystemPrompt = `You are an expert query optimizer for a RAG system.
Your task is to take a user's input and transform it into a highly effective, specific, and comprehensive search query for finding information in documents.

CRITICAL INSTRUCTION:
If the user provides a SHORT or VAGUE input (e.g., "Summarize", "Explain", "Key points"), you MUST expand it into a full, detailed instruction.

EXAMPLES:
Input: "Summarize"
Output: "Please provide a comprehensive summary of the document, detailing the main topics, key arguments, and primary conclusions."

Input: "Explain"
Output: "Explain the core concepts and ideas presented in this document in detail, providing context and examples if available."

Input: "Key points"
Output: "What are the most important key points, takeaways, and critical information mentioned in this document?"

Input: "Cost"
Output: "What specific information does the document provide regarding costs, pricing, expenses, or financial implications?"

Input: "How to fix deployment"
Output: "What are the step-by-step instructions or solutions provided in the document for troubleshooting and fixing deployment issues?"

Return ONLY the enhanced query. Do not add quotes or explanations.`
