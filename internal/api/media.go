package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"playground-ai/internal/gateway"
	"playground-ai/internal/images"
	"playground-ai/internal/quotes"
	"playground-ai/internal/voice"
	"playground-ai/internal/youtube"
	"playground-ai/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker"
)

const audioTooLargeMessage = "Audio file too large. Maximum size is 25MB."

func imageError(err error) error {
	switch {
	case errors.Is(err, images.ErrEmptyPrompt):
		return gateway.InvalidRequest(images.EmptyPromptMessage)
	case errors.Is(err, images.ErrGenerationInFlight):
		return CodedError(http.StatusConflict, err)
	case errors.Is(err, images.ErrImageNotFound):
		return CodedError(http.StatusNotFound, err)
	default:
		return err
	}
}

func (s *PlaygroundService) GetImages(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	return convertImageHistory(ws.Images.Snapshot()), nil
}

func (s *PlaygroundService) GenerateImage(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.GenerateImageRequest](r)
	if err != nil {
		return nil, err
	}

	image, err := ws.Images.Generate(r.Context(), req.Prompt, images.Settings{
		Size:    req.Size,
		Quality: req.Quality,
		Style:   req.Style,
	})
	if err != nil {
		return nil, imageError(err)
	}
	return convertImage(image), nil
}

func (s *PlaygroundService) SelectImage(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	id, err := URLParam(r, "image_id")
	if err != nil {
		return nil, err
	}
	if err := ws.Images.Select(id); err != nil {
		return nil, imageError(err)
	}
	return convertImageHistory(ws.Images.Snapshot()), nil
}

func (s *PlaygroundService) DeleteImage(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	id, err := URLParam(r, "image_id")
	if err != nil {
		return nil, err
	}
	if err := ws.Images.Delete(id); err != nil {
		return nil, imageError(err)
	}
	return convertImageHistory(ws.Images.Snapshot()), nil
}

func (s *PlaygroundService) ClearImages(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	ws.Images.Clear()
	return nil, nil
}

// DownloadImage proxies the generated image so it can be saved under a name
// derived from its prompt.
func (s *PlaygroundService) DownloadImage(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		writeError(w, err)
		return
	}

	image, ok := ws.Images.Get(chi.URLParam(r, "image_id"))
	if !ok {
		writeError(w, CodedError(http.StatusNotFound, images.ErrImageNotFound))
		return
	}

	res, err := s.downloader.R().SetContext(r.Context()).Get(image.ImageURL)
	if err != nil {
		slog.Error("error downloading generated image", "image_id", image.ID, "error", err)
		writeError(w, CodedErrorf(http.StatusBadGateway, "error downloading image"))
		return
	}
	if !res.IsSuccess() {
		slog.Error("error downloading generated image", "image_id", image.ID, "status", res.StatusCode())
		writeError(w, CodedErrorf(http.StatusBadGateway, "error downloading image: status %d", res.StatusCode()))
		return
	}

	contentType := res.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, images.DownloadFilename(image.OriginalPrompt, s.now())))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Body()); err != nil {
		slog.Error("error writing image download", "image_id", image.ID, "error", err)
	}
}

func (s *PlaygroundService) GetQuote(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[api.QuoteParams](r)
	if err != nil {
		return nil, err
	}
	if params.Type == "" {
		params.Type = quotes.TypeDaily
	}
	if params.Category == "" {
		params.Category = quotes.DefaultCategory
	}

	return ws.Quotes.Fetch(r.Context(), params.Type, params.Category), nil
}

func (s *PlaygroundService) GetDailyQuote(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	return ws.Quotes.Daily(r.Context()), nil
}

func (s *PlaygroundService) Transcribe(r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxAudioBytes+1024*1024)
	if err := r.ParseMultipartForm(MaxAudioBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, gateway.InvalidRequest(audioTooLargeMessage)
		}
		return nil, gateway.InvalidRequest("No audio file provided")
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		return nil, gateway.InvalidRequest("No audio file provided")
	}
	defer file.Close()

	if header.Size > MaxAudioBytes {
		return nil, gateway.InvalidRequest(audioTooLargeMessage)
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "error reading audio file")
	}

	transcript, err := s.transcriber.Transcribe(r.Context(), audio, header.Filename)
	if err != nil {
		return nil, err
	}

	return api.TranscribeResponse{Success: true, Transcript: transcript, Timestamp: s.now().UTC()}, nil
}

func (s *PlaygroundService) GetVoiceStatus(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	return convertVoiceStatus(ws.Voice), nil
}

func (s *PlaygroundService) StartRecording(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	if err := ws.Voice.StartRecording(r.Context()); err != nil {
		if errors.Is(err, voice.ErrDeviceUnavailable) {
			return nil, CodedErrorf(http.StatusConflict, "%s", voice.DeviceUnavailableMessage)
		}
		return nil, err
	}
	return convertVoiceStatus(ws.Voice), nil
}

// PushAudio appends the request body to the active recording.
func (s *PlaygroundService) PushAudio(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}

	chunk, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, MaxAudioBytes))
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "%s", audioTooLargeMessage)
	}

	if err := ws.Device.Push(chunk); err != nil {
		if errors.Is(err, voice.ErrNoActiveStream) {
			return nil, CodedError(http.StatusConflict, err)
		}
		return nil, err
	}
	return nil, nil
}

// StopRecording waits for the transcription of the finished recording. If
// the client goes away first the transcription still completes and shows
// up in the recording list.
func (s *PlaygroundService) StopRecording(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}

	done, err := ws.Voice.StopRecording(r.Context())
	if err != nil {
		if errors.Is(err, voice.ErrNotRecording) {
			return nil, CodedError(http.StatusConflict, err)
		}
		return nil, err
	}

	select {
	case rec := <-done:
		return convertRecording(rec), nil
	case <-r.Context().Done():
		return nil, CodedError(http.StatusServiceUnavailable, r.Context().Err())
	}
}

func (s *PlaygroundService) DeleteRecording(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	id, err := URLParam(r, "recording_id")
	if err != nil {
		return nil, err
	}
	if !ws.Voice.DeleteRecording(id) {
		return nil, CodedErrorf(http.StatusNotFound, "recording not found")
	}
	return nil, nil
}

func (s *PlaygroundService) ClearRecordings(r *http.Request) (any, error) {
	ws, err := s.workspace(r)
	if err != nil {
		return nil, err
	}
	ws.Voice.ClearRecordings()
	return nil, nil
}

func (s *PlaygroundService) GetRecordingAudio(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, ok := ws.Voice.Recording(chi.URLParam(r, "recording_id"))
	if !ok {
		writeError(w, CodedErrorf(http.StatusNotFound, "recording not found"))
		return
	}

	w.Header().Set("Content-Type", "audio/webm")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(rec.Audio); err != nil {
		slog.Error("error writing recording audio", "recording_id", rec.ID, "error", err)
	}
}

func videoError(err error) error {
	var apiErr *youtube.APIError
	switch {
	case errors.Is(err, youtube.ErrNotConfigured):
		return CodedError(http.StatusInternalServerError, err)
	case errors.Is(err, youtube.ErrVideoNotFound):
		return CodedError(http.StatusNotFound, err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return CodedErrorf(http.StatusServiceUnavailable, "YouTube API temporarily unavailable")
	case errors.As(err, &apiErr):
		return CodedError(http.StatusBadGateway, err)
	default:
		return CodedErrorf(http.StatusInternalServerError, "Failed to fetch videos")
	}
}

func (s *PlaygroundService) SearchVideos(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.VideoSearchParams](r)
	if err != nil {
		return nil, err
	}
	page, err := s.videos.Search(r.Context(), params.Query, params.MaxResults, params.PageToken)
	if err != nil {
		return nil, videoError(err)
	}
	return page, nil
}

func (s *PlaygroundService) PopularVideos(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.PopularVideosParams](r)
	if err != nil {
		return nil, err
	}
	page, err := s.videos.Popular(r.Context(), params.MaxResults, params.RegionCode)
	if err != nil {
		return nil, videoError(err)
	}
	return page, nil
}

func (s *PlaygroundService) GetVideo(r *http.Request) (any, error) {
	id, err := URLParam(r, "video_id")
	if err != nil {
		return nil, err
	}
	details, err := s.videos.VideoDetails(r.Context(), id)
	if err != nil {
		return nil, videoError(err)
	}
	return details, nil
}
