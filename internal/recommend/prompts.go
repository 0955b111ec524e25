package recommend

import "strings"

const searchTemplate = `You are a book recommendation assistant.

Given the user query: "{{query}}"

Return 5-8 **real, existing non-fiction books** that best match the query.
Focus on self-learning / thinking / professional growth.
Output **ONLY** valid JSON, no explanation, no markdown.

JSON format (array only):

[
  {
    "title": "Book title",
    "author": "Author name",
    "category": "Short category, e.g. Psychology, Business, History",
    "rating": 4.6,
    "description": "1-2 sentence English description of why this book is helpful for the query.",
    "totalPages": 320
  }
]`

const planTemplate = `You are a reading-plan generator. For the topic "{{topic}}", return EXACTLY this JSON format:

{
 "topic": "{{topic}}",
 "estimatedTime": "3-6 months",
 "difficulty": "Progressive",
 "subtopics": [
   {
     "id": 1,
     "title": "Fundamentals",
     "description": "Short English description.",
     "books": [
       {
         "title": "Book title",
         "author": "Author name",
         "difficulty": "Beginner",
         "totalPages": 300
       }
     ]
   }
 ]
}

Rules:
- Output ONLY pure JSON.
- No markdown, no explanation, no backticks.`

func searchPrompt(query string) string {
	return strings.ReplaceAll(searchTemplate, "{{query}}", query)
}

func planPrompt(topic string) string {
	return strings.ReplaceAll(planTemplate, "{{topic}}", topic)
}
