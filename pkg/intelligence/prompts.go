package intelligence

// Prompt templates. Each names its JSON contract explicitly; the parsers in
// parse.go still accept free text when a model ignores it.

const ratingSystemPrompt = `You rate memories of an autonomous agent.
On the scale of 1 to 10, where 1 is purely mundane (e.g., brushing teeth, making bed) and 10 is extremely poignant (e.g., a break up, college acceptance), rate the likely poignancy of a piece of memory.
Respond with JSON only.`

// ratingPromptTemplate takes the memory content.
const ratingPromptTemplate = `Rate the likely poignancy of the following piece of memory.
Respond with a JSON object of the form {"rating": N} where N is an integer from 1 to 10.
Memory: %s`

// batchRatingPromptTemplate takes the memory count and the memories, one per
// numbered line.
const batchRatingPromptTemplate = `Rate the likely poignancy of each of the following %d memories.
Each memory is on its own numbered line. Rate each numbered line as one memory, whatever punctuation it contains.
Respond with a JSON object of the form {"ratings": [N1, N2, ...]} containing one integer from 1 to 10 per numbered memory, in the same order. If given only one memory, still respond with a list.
Memories:
%s`

// topicsPromptTemplate takes the formatted observations and the topic count.
const topicsPromptTemplate = `%s

Given only the information above, what are the %d most salient high-level questions we can answer about the subjects in the statements?
Provide each question on a new line.`

// insightsPromptTemplate takes the topic, the numbered statements, the insight
// count and the topic again.
const insightsPromptTemplate = `Statements relevant to: '%s'
---
%s
---
What %d high-level novel insights can you infer from the above statements that are relevant for answering the following question?
Do not include any insights that are not relevant to the question.
Do not repeat any insights that have already been made.

Question: %s

Provide each insight on a new line.
(example format: insight (because of 1, 5, 3))`
