package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind tags every failure surfaced by the API client
type Kind string

const (
	// KindValidation means the caller passed an unusable argument; no request was sent
	KindValidation Kind = "validation"
	// KindTransport means the request was sent but no response arrived
	KindTransport Kind = "transport"
	// KindServer means a 5xx status or an unreadable response body
	KindServer Kind = "server"
	// KindClientRequest means a 4xx status
	KindClientRequest Kind = "client_request"
	// KindConfig means the request could not be built at all
	KindConfig Kind = "config"
)

// Status codes for failures that never produced an HTTP status
const (
	StatusNoResponse = 0
	StatusNotBuilt   = -1
)

// User-facing messages
const (
	MsgInvalidData        = "Données invalides. Veuillez vérifier les informations saisies."
	MsgUnauthorized       = "Session expirée ou non autorisée. Veuillez vous reconnecter."
	MsgForbidden          = "Accès refusé. Vous n'avez pas les droits nécessaires."
	MsgNotFound           = "Ressource introuvable."
	MsgPayloadTooLarge    = "Fichier trop volumineux. Taille maximale autorisée : 1MB."
	MsgUnprocessable      = "Les données envoyées n'ont pas pu être traitées."
	MsgInternal           = "Erreur interne du serveur. Veuillez réessayer plus tard."
	MsgUnavailable        = "Service temporairement indisponible. Veuillez réessayer plus tard."
	MsgServerGeneric      = "Erreur serveur."
	MsgNoResponse         = "Impossible de contacter le serveur. Vérifiez votre connexion."
	MsgTimeout            = "La requête a expiré. Veuillez réessayer."
	MsgConfig             = "Erreur de configuration de la requête."
	MsgUnexpectedResponse = "Réponse inattendue du serveur."
	MsgGeneric            = "Une erreur est survenue."
)

// Error is the normalized form of every API client failure
type Error struct {
	Kind       Kind
	StatusCode int
	// UserMessage is short, French, and safe to show to the end user
	UserMessage string
	// ServerMessage is the backend's own "error" field, if any
	ServerMessage string
	Timeout       bool
	Body          []byte
	Err           error
}

// Error implements error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api %s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	if e.ServerMessage != "" {
		return fmt.Sprintf("api %s error (status %d): %s", e.Kind, e.StatusCode, e.ServerMessage)
	}
	return fmt.Sprintf("api %s error (status %d)", e.Kind, e.StatusCode)
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is eligible for the automatic retry:
// no response at all, or a 5xx status
func (e *Error) Retryable() bool {
	return e.Kind == KindTransport || e.StatusCode >= http.StatusInternalServerError
}

// NewTransport wraps a failure where no response was received
func NewTransport(err error, timeout bool) *Error {
	msg := MsgNoResponse
	if timeout {
		msg = MsgTimeout
	}
	return &Error{
		Kind:        KindTransport,
		StatusCode:  StatusNoResponse,
		UserMessage: msg,
		Timeout:     timeout,
		Err:         err,
	}
}

// NewConfig wraps a failure to build the request
func NewConfig(err error) *Error {
	return &Error{
		Kind:        KindConfig,
		StatusCode:  StatusNotBuilt,
		UserMessage: MsgConfig,
		Err:         err,
	}
}

// NewValidation wraps an argument rejected before any request was sent
func NewValidation(err error, userMessage string) *Error {
	return &Error{
		Kind:        KindValidation,
		StatusCode:  StatusNotBuilt,
		UserMessage: userMessage,
		Err:         err,
	}
}

// NewDecode wraps a response whose body could not be understood
func NewDecode(status int, body []byte, err error) *Error {
	return &Error{
		Kind:        KindServer,
		StatusCode:  status,
		UserMessage: MsgUnexpectedResponse,
		Body:        body,
		Err:         err,
	}
}

// FromResponse builds the error for a non-2xx response
func FromResponse(status int, statusText string, body []byte) *Error {
	serverMsg := serverMessage(body)

	kind := KindClientRequest
	if status >= http.StatusInternalServerError {
		kind = KindServer
	}

	return &Error{
		Kind:          kind,
		StatusCode:    status,
		UserMessage:   userMessageForStatus(status, statusText, serverMsg),
		ServerMessage: serverMsg,
		Body:          body,
	}
}

// userMessageForStatus dispatches on the exact status code
func userMessageForStatus(status int, statusText, serverMsg string) string {
	switch status {
	case http.StatusBadRequest:
		return MsgInvalidData
	case http.StatusUnauthorized:
		return MsgUnauthorized
	case http.StatusForbidden:
		return MsgForbidden
	case http.StatusNotFound:
		return MsgNotFound
	case http.StatusRequestEntityTooLarge:
		return MsgPayloadTooLarge
	case http.StatusUnprocessableEntity:
		return MsgUnprocessable
	case http.StatusInternalServerError:
		return MsgInternal
	case http.StatusServiceUnavailable:
		return MsgUnavailable
	}

	switch {
	case serverMsg != "":
		return serverMsg
	case statusText != "":
		return statusText
	default:
		return MsgServerGeneric
	}
}

// serverMessage extracts the backend's error field. Both {"error": "..."}
// and {"error": {"code": "...", "message": "..."}} bodies are understood.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}

	var nested struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	return ""
}

// As returns the *Error in err's chain, if any
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// StatusCode returns the status carried by err, or StatusNotBuilt if err is
// not an API error
func StatusCode(err error) int {
	if e, ok := As(err); ok {
		return e.StatusCode
	}
	return StatusNotBuilt
}

// IsUnauthorized reports whether err is a 401 from the backend
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
