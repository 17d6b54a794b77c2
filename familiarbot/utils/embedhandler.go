package utils

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
)

// ResponseHandler provides standardized response methods for commands and components
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	// UserError - invalid options, wrong card ranks, cards the user does not own
	UserError ErrorType = iota
	// SystemError - database failures, network issues, internal server errors
	SystemError
	// NotFoundError - requested resources don't exist
	NotFoundError
	// PermissionError - unauthorized actions, access denied
	PermissionError
	// BusinessLogicError - insufficient points, busy familiars, unfinished expeditions
	BusinessLogicError
)

const genericSystemMessage = "Something went wrong on our side. Please try again later."

func getErrorPrefix(errorType ErrorType) string {
	switch errorType {
	case UserError:
		return "⚠️"
	case SystemError:
		return "🔧"
	case NotFoundError:
		return "🔍"
	case PermissionError:
		return "🚫"
	case BusinessLogicError:
		return "⏰"
	default:
		return "❌"
	}
}

func getErrorColor(errorType ErrorType) int {
	switch errorType {
	case UserError, BusinessLogicError:
		return config.WarningColor
	case NotFoundError:
		return config.InfoColor
	default:
		return config.ErrorColor
	}
}

// ClassifyError maps an engine error onto a response category and the message shown to
// the user. Errors that are not engine errors never leak their text.
func ClassifyError(err error) (ErrorType, string) {
	var gerr *gameerr.Error
	if !errors.As(err, &gerr) {
		return SystemError, genericSystemMessage
	}

	switch gerr.Kind {
	case gameerr.KindValidation:
		return UserError, capitalize(gerr.Message)
	case gameerr.KindAuthorization:
		return PermissionError, capitalize(gerr.Message)
	case gameerr.KindNotFound:
		return NotFoundError, capitalize(gerr.Message)
	case gameerr.KindStateConflict, gameerr.KindResourceExhausted, gameerr.KindNotReady:
		return BusinessLogicError, capitalize(gerr.Message)
	default:
		return SystemError, genericSystemMessage
	}
}

// HandleEngineError answers a failed engine call on either event type. System errors are
// logged with their cause; everything else is an expected outcome.
func (h *ResponseHandler) HandleEngineError(event interface{}, err error) error {
	errorType, message := ClassifyError(err)
	if errorType == SystemError {
		slog.Error("Engine call failed",
			slog.String("type", "error"),
			slog.Any("error", err))
	}

	switch e := event.(type) {
	case *handler.CommandEvent:
		return h.CreateClassifiedError(e, errorType, message)
	case *handler.ComponentEvent:
		return h.CreateClassifiedComponentError(e, errorType, message)
	case *handler.AutocompleteEvent:
		return e.AutocompleteResult(nil)
	default:
		return fmt.Errorf("unsupported event type for error handling")
	}
}

// ErrorEmbed builds the embed used for classified errors, for callers that edit a
// deferred response instead of creating one.
func ErrorEmbed(errorType ErrorType, message string) discord.Embed {
	return discord.Embed{
		Description: getErrorPrefix(errorType) + " " + message,
		Color:       getErrorColor(errorType),
	}
}

// CreateClassifiedError creates an error response with automatic categorization
func (h *ResponseHandler) CreateClassifiedError(event *handler.CommandEvent, errorType ErrorType, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{ErrorEmbed(errorType, message)},
		Flags:  discord.MessageFlagEphemeral,
	})
}

// CreateClassifiedComponentError creates an ephemeral error for component interactions
func (h *ResponseHandler) CreateClassifiedComponentError(event *handler.ComponentEvent, errorType ErrorType, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Content: getErrorPrefix(errorType) + " " + message,
		Flags:   discord.MessageFlagEphemeral,
	})
}

func (h *ResponseHandler) CreateUserError(event *handler.CommandEvent, message string) error {
	return h.CreateClassifiedError(event, UserError, message)
}

func (h *ResponseHandler) CreatePermissionError(event *handler.CommandEvent, action string) error {
	return h.CreateClassifiedError(event, PermissionError, fmt.Sprintf("You don't have permission to %s", action))
}

func (h *ResponseHandler) CreateNotFoundError(event *handler.CommandEvent, resource, identifier string) error {
	return h.CreateClassifiedError(event, NotFoundError, fmt.Sprintf("%s '%s' not found", resource, identifier))
}

// CreateSuccessEmbed creates a standard success embed for command events
func (h *ResponseHandler) CreateSuccessEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.SuccessColor,
		}},
	})
}

// CreateInfoEmbed creates a standard info embed for command events
func (h *ResponseHandler) CreateInfoEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.InfoColor,
		}},
	})
}

// CreateEphemeralSuccess creates an ephemeral success message for component events
func (h *ResponseHandler) CreateEphemeralSuccess(event *handler.ComponentEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Content: "✅ " + message,
		Flags:   discord.MessageFlagEphemeral,
	})
}

// HandleSuccess provides centralized success handling for different event types
func (h *ResponseHandler) HandleSuccess(event interface{}, message string) error {
	switch e := event.(type) {
	case *handler.CommandEvent:
		return h.CreateSuccessEmbed(e, message)
	case *handler.ComponentEvent:
		return h.CreateEphemeralSuccess(e, message)
	default:
		return fmt.Errorf("unsupported event type for success handling")
	}
}
