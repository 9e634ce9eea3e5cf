package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Request schemas bound the inputs accepted for each media type. They are
// provider-independent; a provider client receives an already-validated
// request.

const (
	defaultOutputTokens = 1024
	defaultTemperature  = 0.7
)

// TextRequest describes a text generation request.
type TextRequest struct {
	InputText       string   `json:"input_text" validate:"required,max=8000"`
	SystemPrompt    string   `json:"system_prompt" validate:"omitempty,max=2000"`
	Temperature     *float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxOutputTokens *int     `json:"max_output_tokens" validate:"omitempty,gte=1,lte=4096"`
	Model           string   `json:"model" validate:"omitempty,max=100"`
}

// ImageRequest describes an image generation request.
type ImageRequest struct {
	Prompt  string `json:"prompt" validate:"required,max=1000"`
	Size    string `json:"size" validate:"omitempty,image_size"`
	Quality string `json:"quality" validate:"omitempty,oneof=standard hd"`
	Model   string `json:"model" validate:"omitempty,max=100"`
}

// VideoRequest describes a video generation request.
type VideoRequest struct {
	Prompt      string `json:"prompt" validate:"required,max=1000"`
	Duration    string `json:"duration" validate:"omitempty,video_duration"`
	Resolution  string `json:"resolution" validate:"omitempty,oneof=720p 1080p 4K"`
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16 1:1 3:4"`
	Style       string `json:"style" validate:"omitempty,oneof=realistic cinematic animated cartoon anime"`
	Model       string `json:"model" validate:"omitempty,max=100"`
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	imageSizePattern     = regexp.MustCompile(`^\d+x\d+$`)
	videoDurationPattern = regexp.MustCompile(`^\d+s$`)
)

func init() {
	_ = validate.RegisterValidation("image_size", func(fl validator.FieldLevel) bool {
		return imageSizePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("video_duration", func(fl validator.FieldLevel) bool {
		return videoDurationPattern.MatchString(fl.Field().String())
	})
}

// DecodeTextRequest parses and validates arguments for text generation.
func DecodeTextRequest(args json.RawMessage) (*TextRequest, error) {
	var req TextRequest
	if err := decodeArguments(args, &req); err != nil {
		return nil, err
	}
	req.InputText = strings.TrimSpace(req.InputText)
	req.SystemPrompt = strings.TrimSpace(req.SystemPrompt)
	if req.Temperature == nil {
		t := defaultTemperature
		req.Temperature = &t
	}
	if req.MaxOutputTokens == nil {
		n := defaultOutputTokens
		req.MaxOutputTokens = &n
	}
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeImageRequest parses and validates arguments for image generation.
func DecodeImageRequest(args json.RawMessage) (*ImageRequest, error) {
	var req ImageRequest
	if err := decodeArguments(args, &req); err != nil {
		return nil, err
	}
	if req.Size == "" {
		req.Size = "1024x1024"
	}
	if req.Quality == "" {
		req.Quality = "standard"
	}
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeVideoRequest parses and validates arguments for video generation.
func DecodeVideoRequest(args json.RawMessage) (*VideoRequest, error) {
	var req VideoRequest
	if err := decodeArguments(args, &req); err != nil {
		return nil, err
	}
	if req.Duration == "" {
		req.Duration = "8s"
	}
	if req.Resolution == "" {
		req.Resolution = "720p"
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}
	if req.Style == "" {
		req.Style = "realistic"
	}
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeArguments(args json.RawMessage, dst any) error {
	if len(args) == 0 {
		return &ValidationError{Reason: "arguments are required"}
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("malformed arguments: %v", err)}
	}
	return nil
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		e := fieldErrs[0]
		reason := fmt.Sprintf("failed %q constraint", e.Tag())
		if e.Param() != "" {
			reason = fmt.Sprintf("failed %q(%s) constraint", e.Tag(), e.Param())
		}
		return &ValidationError{Field: jsonFieldName(s, e.StructField()), Reason: reason}
	}
	return &ValidationError{Reason: err.Error()}
}

func jsonFieldName(s any, structField string) string {
	t := reflect.TypeOf(s)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return structField
	}
	if f, ok := t.FieldByName(structField); ok {
		if tag := strings.Split(f.Tag.Get("json"), ",")[0]; tag != "" {
			return tag
		}
	}
	return structField
}
