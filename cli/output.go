package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"bulletinboard/handler"
	"bulletinboard/richtext"
	"bulletinboard/shortid"
	"bulletinboard/store"

	"github.com/dustin/go-humanize"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Store or import failure
	ExitCommandError = 2 // Bad flags or arguments, unusable configuration
	ExitNotFound     = 3 // No post with the given id
	ExitForbidden    = 4 // Post belongs to another user
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// wrapOpError picks the exit code matching a failed post operation.
func wrapOpError(message string, err error) *ExitError {
	switch {
	case errors.Is(err, store.ErrPostNotFound):
		return WrapExitError(ExitNotFound, message, err)
	case errors.Is(err, handler.ErrForbidden):
		return WrapExitError(ExitForbidden, message, err)
	case errors.Is(err, shortid.ErrMalformedIdentifier),
		errors.Is(err, store.ErrInvalidPost),
		errors.Is(err, handler.ErrIncompleteDraft):
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Success writes data as JSON, or text through its Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a failed command's error.
func (f *OutputFormatter) Error(err error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: GetExitCode(err), Message: err.Error()},
		})
	}
	_, werr := fmt.Fprintf(f.Writer, "Error: %v\n", err)
	return werr
}

// postView is a single post in command output.
type postView struct {
	handler.PostDTO
	Rich richtext.Text `json:"rich_content"`
}

func (v postView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", v.Title)
	fmt.Fprintf(&b, "  id:     %s\n", v.ID)
	fmt.Fprintf(&b, "  author: %s\n", v.Author)
	fmt.Fprintf(&b, "  posted: %s (%s)\n", v.CreatedAt.Format("2006-01-02 15:04:05 MST"), humanize.Time(v.CreatedAt))
	fmt.Fprintf(&b, "\n%s", v.Content)
	return b.String()
}

// pageView is one page of a post listing.
type pageView struct {
	Posts      []handler.PostDTO `json:"posts"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	HasPrev    bool              `json:"has_prev"`
	HasNext    bool              `json:"has_next"`
}

func newPageView(r handler.PageResult) pageView {
	v := pageView{
		Posts:      make([]handler.PostDTO, 0, len(r.Items)),
		Page:       r.Page + 1,
		TotalPages: r.TotalPages,
		HasPrev:    r.HasPrev,
		HasNext:    r.HasNext,
	}
	for _, p := range r.Items {
		v.Posts = append(v.Posts, handler.NewPostDTO(p))
	}
	return v
}

func (v pageView) String() string {
	if len(v.Posts) == 0 {
		return "No posts."
	}
	var b strings.Builder
	for _, p := range v.Posts {
		fmt.Fprintf(&b, "%s  %s  (%s)\n", p.ID, p.Title, humanize.Time(p.CreatedAt))
	}
	fmt.Fprintf(&b, "page %d/%d", v.Page, v.TotalPages)
	return b.String()
}

// message is a plain confirmation.
type message struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func (m message) String() string {
	return m.Message
}
