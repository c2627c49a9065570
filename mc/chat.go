package mc

import "encoding/json"

type chatTextJSON struct {
	Text string `json:"text"`
}

// ChatText wraps plain text in the minimal JSON chat component vanilla
// clients expect for login/play disconnect reasons and system messages,
// the same json.Marshal-a-small-struct convention StatusResponse uses for
// its description field.
func ChatText(text string) Chat {
	data, _ := json.Marshal(chatTextJSON{Text: text})
	return Chat(data)
}
