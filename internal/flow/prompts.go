package flow

import (
	"fmt"

	"github.com/openai/openai-go"

	"github.com/smile-education/intake-assistant/internal/models"
)

// BuildSystemPrompt returns the system instruction for the given user type.
// The school variant embeds the full context dump so the model sees every
// captured requirement.
func BuildSystemPrompt(userType models.UserType, convCtx *models.ConversationContext) string {
	switch userType {
	case models.UserTypeCandidate:
		postcode := convCtx.Postcode
		if postcode == "" {
			postcode = "Unknown"
		}
		return fmt.Sprintf(
			"You are CandidateBot for Smile Education.\n"+
				"The candidate lives in %s and is registering for teaching work.\n"+
				"Help them register, collect documents, explain the DBS check, and close warmly.",
			postcode,
		)
	case models.UserTypeSchool:
		return fmt.Sprintf(
			"You are SchoolBot for Smile Education.\n"+
				"Current school context:\n%s\n\n"+
				"Gather requirements, suggest candidates, and automate self-serve selection.",
			convCtx.Dump(),
		)
	default:
		return "You are GeneralBot for Smile Education.\n" +
			"Greet the user, help them choose between finding a teaching job and recruiting staff " +
			"for a school, and answer any other questions about our services.\n" +
			"Use a friendly, helpful tone with no markdown formatting."
	}
}

// buildMessages assembles the completion request: system instruction, the
// rolling history, then the turn's prompt as the final user message.
func buildMessages(systemPrompt string, history *History, prompt string) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(systemPrompt)}
	for _, msg := range history.Messages() {
		switch msg.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	return append(messages, openai.UserMessage(prompt))
}
