package windowing_test

import "github.com/petasbytes/go-assistant/processor"

func user(text string) processor.Message {
	return processor.TextMessage(processor.RoleUser, text)
}

func asst(text string) processor.Message {
	return processor.TextMessage(processor.RoleAssistant, text)
}
