package analysis_service

const analysisSystemPrompt = "You are a conversation analysis assistant specialized in Arabic customer service interactions."

const labelingSystemPrompt = "You are a conversation analysis assistant."

const summaryPrompt = `
Please provide a concise, single-paragraph summary of this customer service conversation in Arabic.
Include the main purpose of the call, key points discussed, and any resolutions reached.
Respond with a JSON object containing only a "summary" field with the paragraph.

Conversation:
`

const eventsPrompt = `
Analyze this customer service conversation and identify key events that occurred.
Group events by actor (Agent/Customer) and keep descriptions concise.
Return at most 3 events.

The input data is structured as a list of segments, each with the following fields:
- startTime: The start time of the segment in seconds.
- endTime: The end time of the segment in seconds.
- text: The spoken text in the segment.
- speaker: The speaker identifier (e.g., "Speaker 0", "Speaker 1").
- channel: The audio channel number.

Format your response as a JSON object with this structure:
{
    "events": [
        {
            "actor": "agent",
            "action": "approved refund of 50 AED",
            "timestamp": 45.23
        },
        {
            "actor": "customer",
            "action": "requested account closure and data deletion",
            "timestamp": 120.45
        }
    ]
}

Guidelines:
1. Keep actions brief but informative
2. Group similar actions by the same actor together
3. Use lowercase for actor values
4. Remove any unnecessary words
5. Focus only on significant actions/decisions
6. Include the startTime of the segment where the event occurred as timestamp

Only return the JSON object, no additional text.
Conversation:
`

const checklistPromptTemplate = `
Given these conversation segments:
%s

And this checklist:
%s

For each segment number, determine if it fulfills any of the checklist items.
Only match segments that clearly fulfill the checklist item.
Respond in JSON format like this:
{
    "matches": [
        {"segment": 1, "checklist_item": "Greet Customer"},
        {"segment": 3, "checklist_item": "Gather Relevant Information"}
    ]
}
Only include segments that match a checklist item.
Respond with only the JSON object, no additional text or formatting.
`

const labelingPromptTemplate = `
You are an AI assistant tasked with labeling a segment of a customer service conversation.
The possible labels and their descriptions are:

%s

Here's the segment:
[%s]: %s

Determine if this segment should have any of the defined labels. If the segment doesn't match any label criteria, respond with null.
Be very conservative in your labeling. Don't assign any label unless it's very clear that this segment matches the label criteria.
Provide the response as a single JSON object with format: {"label": "label_name"} or {"label": null}
Only respond with the JSON object, no additional text.
`
