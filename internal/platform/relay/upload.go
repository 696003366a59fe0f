package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// UploadResult is returned by the single-file variant; Data is the hosted URL.
type UploadResult struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// MultiUploadResult is returned by the multi-file variant. Data holds only
// the uploads that produced a usable URL, in input order; callers must
// tolerate a shorter list than the input on partial success.
type MultiUploadResult struct {
	Success bool     `json:"success"`
	Data    []string `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Uploader relays files to the image host's unsigned upload endpoint.
type Uploader struct {
	http         *resty.Client
	uploadPreset string
	logger       zerolog.Logger
}

// NewUploader creates an upload relay for the given cloud name and preset.
func NewUploader(cloudName, uploadPreset string, logger zerolog.Logger) *Uploader {
	client := resty.New().
		SetBaseURL(fmt.Sprintf("https://api.cloudinary.com/v1_1/%s", cloudName)).
		SetTimeout(60 * time.Second)
	return &Uploader{http: client, uploadPreset: uploadPreset, logger: logger}
}

// newUploaderForTest builds an Uploader against an arbitrary base URL.
func newUploaderForTest(baseURL, uploadPreset string, logger zerolog.Logger) *Uploader {
	client := resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second)
	return &Uploader{http: client, uploadPreset: uploadPreset, logger: logger}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload relays one file and returns its hosted URL. Like the SMS relay it
// reports failure through the envelope, not an error.
func (u *Uploader) Upload(ctx context.Context, fileName string, content []byte) *UploadResult {
	if len(content) == 0 {
		return &UploadResult{Success: false, Message: "empty file"}
	}

	var parsed uploadResponse
	resp, err := u.http.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytesReader(content)).
		SetFormData(map[string]string{"upload_preset": u.uploadPreset}).
		SetResult(&parsed).
		Post("/auto/upload")

	if err != nil {
		u.logger.Error().Err(err).Str("file", fileName).Msg("upload relay transport failure")
		return &UploadResult{Success: false, Message: err.Error()}
	}
	if resp.IsError() {
		msg := parsed.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		u.logger.Error().Int("status", resp.StatusCode()).Str("file", fileName).Msg("upload relay provider failure")
		return &UploadResult{Success: false, Message: msg}
	}

	url := parsed.SecureURL
	if url == "" {
		url = parsed.URL
	}
	if url == "" {
		return &UploadResult{Success: false, Message: "provider returned no url"}
	}
	return &UploadResult{Success: true, Data: url}
}

// File pairs a name with its content for the multi-file variant.
type File struct {
	Name    string
	Content []byte
}

// UploadMany relays each file in order and collects the usable URLs. The
// result is successful when at least one upload produced a URL; the Data list
// may be shorter than the input on partial success.
func (u *Uploader) UploadMany(ctx context.Context, files []File) *MultiUploadResult {
	if len(files) == 0 {
		return &MultiUploadResult{Success: false, Message: "no files given"}
	}

	var urls []string
	var lastFailure string
	for _, f := range files {
		res := u.Upload(ctx, f.Name, f.Content)
		if res.Success {
			urls = append(urls, res.Data)
		} else {
			lastFailure = res.Message
		}
	}

	if len(urls) == 0 {
		return &MultiUploadResult{Success: false, Message: lastFailure}
	}
	return &MultiUploadResult{Success: true, Data: urls}
}
