package handler

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/internal/service"
	"github.com/ahmednasr/githelpdesk/internal/session"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// ChatHandler wires HTTP → ChatService and owns the conversation lifecycle.
type ChatHandler struct {
	svc      service.ChatService
	sessions *session.Store
	validate *validator.Validate
	log      *logger.Logger
}

// NewChatHandler returns a struct pointer so you can call Register on it.
func NewChatHandler(svc service.ChatService, sessions *session.Store, log *logger.Logger) *ChatHandler {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &ChatHandler{svc: svc, sessions: sessions, validate: v, log: log.Named("handler.chat")}
}

// Register mounts POST /chat and POST /reset on the supplied router group.
func (h *ChatHandler) Register(r fiber.Router) {
	r.Post("/chat", h.chat)
	r.Post("/reset", h.reset)
}

// RegisterRoot mounts POST /start-conversation outside the /api group.
func (h *ChatHandler) RegisterRoot(r fiber.Router) {
	r.Post("/start-conversation", h.startConversation)
}

type chatResponse struct {
	models.ChatAnswer
	ProcessingTime      float64                 `json:"processing_time"`
	ConversationHistory []models.Message        `json:"conversation_history"`
	UserPreferences     preferences.Preferences `json:"user_preferences"`
}

// chat handles POST /chat {conversation_id, question, use_realtime?, force_refresh?}
func (h *ChatHandler) chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "Invalid request", err.Error())
	}
	if details := h.validationDetails(req); details != nil {
		return writeError(c, fiber.StatusBadRequest, "Invalid request", details)
	}

	start := time.Now()
	turn := h.svc.Ask(c.UserContext(), h.sessions.Get(req.ConversationID), service.ChatInput{
		Question:     req.Question,
		UseRealtime:  req.Realtime(),
		ForceRefresh: req.ForceRefresh,
	})

	history := turn.History
	if history == nil {
		history = []models.Message{}
	}
	return c.JSON(chatResponse{
		ChatAnswer:          turn.ChatAnswer,
		ProcessingTime:      processingTime(start),
		ConversationHistory: history,
		UserPreferences:     turn.Preferences,
	})
}

// validationDetails maps each invalid field to a reason, or returns nil.
func (h *ChatHandler) validationDetails(req models.ChatRequest) map[string]string {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "Missing data for required field."
		default:
			details[fe.Field()] = "failed " + fe.Tag() + " validation"
		}
	}
	return details
}

// reset handles POST /reset. An optional conversation_id (JSON body or
// query) limits the reset to one conversation.
func (h *ChatHandler) reset(c *fiber.Ctx) error {
	var req models.ResetRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid request", err.Error())
		}
	}
	if req.ConversationID == "" {
		req.ConversationID = c.Query("conversation_id")
	}

	n := h.sessions.Reset(req.ConversationID)
	h.log.Info("conversation state reset", zap.String("conversation_id", req.ConversationID), zap.Int("sessions", n))

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Chat history and preferences reset",
	})
}

// startConversation handles POST /start-conversation.
func (h *ChatHandler) startConversation(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "success",
		"conversation_id": uuid.NewString(),
		"message":         "New conversation started",
	})
}
