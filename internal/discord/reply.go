package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// interactionReplier answers a slash command.
// The interaction is acknowledged first so work may exceed the platform's response window.
type interactionReplier struct {
	api         messenger
	interaction *discordgo.Interaction
	deferred    bool
}

func newInteractionReplier(api messenger, i *discordgo.Interaction) *interactionReplier {
	return &interactionReplier{api: api, interaction: i}
}

// Defer acknowledges the interaction with a "thinking" state
func (r *interactionReplier) Defer(ctx context.Context) error {
	err := r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to defer interaction response: %w", err)
	}
	r.deferred = true
	return nil
}

// Reply edits the deferred response, or responds directly if Defer did not succeed
func (r *interactionReplier) Reply(ctx context.Context, message string) error {
	if r.deferred {
		content := message
		_, err := r.api.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{
			Content: &content,
		}, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to edit interaction response: %w", err)
		}
		return nil
	}

	err := r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: message},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to respond to interaction: %w", err)
	}
	return nil
}

// messageReplier answers a prefixed text command as a reply to the triggering message
type messageReplier struct {
	api     messenger
	message *discordgo.Message
}

func (r *messageReplier) Reply(ctx context.Context, message string) error {
	if _, err := r.api.ChannelMessageSendReply(r.message.ChannelID, message, r.message.Reference(), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}
