package ocr

// ChunkerSystemPrompt frames the model as an OCR and chunking tool.
const ChunkerSystemPrompt = "You are an expert at extracting information from images, especially PDFs. You transcribe pages and split them into semantically coherent chunks. You must output your response as a valid JSON array."

// ChunkerUserPrompt is sent alongside every page.
const ChunkerUserPrompt = `Convert the page to markdown, format tables as HTML. Preserve all information.

Chunk the document into sections of roughly 250 - 1000 words. Our goal is to identify parts of the page with the same semantic theme. These chunks will be embedded and used in a RAG pipeline.

Return the response as a single, valid JSON array of objects, with chunks and metadata containing key entities and topics referenced by the chunk. Ensure the JSON is well-formed and valid.
Do not surround your output with triple backticks or any other formatting markers outside of the JSON itself.

Example output format:
[
  {
    "chunk": "chunk1",
    "metadata": {
      "entities": ["entity1", "entity2"],
      "topics": ["topic1", "topic2"]
    }
  },
  {
    "chunk": "chunk2",
    "metadata": {
      "entities": ["entity3", "entity4"],
      "topics": ["topic3", "topic4"]
    }
  }
]`
