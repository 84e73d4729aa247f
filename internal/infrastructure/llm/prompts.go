package llm

const promptGroupArticles = `Group the following news articles by shared story, event, or topic.

Input: a JSON array of articles, each with "id" (numeric), "raw_id", "title" and "thumbnail".

Output: a JSON array only, no explanatory text, with this shape:
[
  {"title": "Concise summary title for the grouped story", "id": [1, 2], "thumbnail": []},
  {"title": "Original title for an ungrouped article", "id": [3], "thumbnail": []}
]

Instructions:
1. Analyze the titles to identify articles covering the same story.
2. Merge clearly related articles into a single entry; write a concise summary
   title capturing the shared story, in the same language as the input titles.
3. Keep unrelated articles as single-member entries with their original title.
4. Refer to articles by their numeric "id" values.
5. Leave "thumbnail" as an empty array in every entry.

Input articles:
`

const promptTranslateArticle = `Translate the following Markdown news article into %[1]s, preserving the Markdown structure.

Return a JSON object only, no explanatory text:
{
  "title": "<concise title, max 50 characters, no quotes or colons>",
  "slug": "<url-friendly slug, max 50 characters, lowercase ASCII, hyphen-separated>",
  "description": "<brief description in %[1]s, no quotes or colons>",
  "use": <true when the article is relevant to a %[1]s-speaking audience, else false>,
  "content": "<the translated article in Markdown>"
}

Instructions:
1. Translate into natural, idiomatic %[1]s; leave no source text untranslated.
2. Remove related-article sections, author bylines, source credits, social
   sharing links, and comments.
3. Preserve headings, lists, links, and every image reference, keeping their
   Markdown syntax intact; local image paths must not be altered.
4. Do not add, omit, or alter information beyond removing the sections above.
5. Use a sensible heading hierarchy and scannable paragraphs.

Markdown input:
`
