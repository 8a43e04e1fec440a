package api

import (
	"playground-ai/internal/chat"
	"playground-ai/internal/database"
	"playground-ai/internal/images"
	"playground-ai/internal/voice"
	"playground-ai/pkg/api"
)

func convertChatMessages(ms []chat.ChatMessage) []api.ChatMessage {
	messages := make([]api.ChatMessage, 0, len(ms))
	for _, m := range ms {
		messages = append(messages, api.ChatMessage{
			Id:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return messages
}

func convertSession(snap chat.Snapshot) api.Session {
	return api.Session{
		State:          snap.State.String(),
		ConversationId: snap.ConversationID,
		Messages:       convertChatMessages(snap.Messages),
		Error:          snap.Error,
	}
}

func convertConversationSummaries(cs []chat.Conversation) []api.ConversationSummary {
	summaries := make([]api.ConversationSummary, 0, len(cs))
	for _, c := range cs {
		summaries = append(summaries, api.ConversationSummary{
			Id:           c.ID,
			Title:        c.Title,
			MessageCount: len(c.Messages),
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return summaries
}

func convertImage(img images.GeneratedImage) api.GeneratedImage {
	return api.GeneratedImage{
		Id:             img.ID,
		ImageUrl:       img.ImageURL,
		OriginalPrompt: img.OriginalPrompt,
		RevisedPrompt:  img.RevisedPrompt,
		Settings: api.ImageSettings{
			Size:    img.Settings.Size,
			Quality: img.Settings.Quality,
			Style:   img.Settings.Style,
		},
		Timestamp: img.Timestamp,
	}
}

func convertImageHistory(snap images.Snapshot) api.ImageHistory {
	history := api.ImageHistory{
		Images:  make([]api.GeneratedImage, 0, len(snap.Images)),
		Loading: snap.Loading,
		Error:   snap.Error,
	}
	for _, img := range snap.Images {
		history.Images = append(history.Images, convertImage(img))
	}
	if snap.Current != nil {
		current := convertImage(*snap.Current)
		history.Current = &current
	}
	return history
}

func convertRecording(r voice.Recording) api.Recording {
	return api.Recording{
		Id:              r.ID,
		Transcript:      r.Transcript,
		Transcribed:     r.Transcribed(),
		DurationSeconds: r.DurationSeconds,
		Timestamp:       r.Timestamp,
	}
}

func convertVoiceStatus(p *voice.Pipeline) api.VoiceStatus {
	recordings := p.Recordings()
	status := api.VoiceStatus{
		State:      p.State().String(),
		Error:      p.Err(),
		Recordings: make([]api.Recording, 0, len(recordings)),
	}
	for _, r := range recordings {
		status.Recordings = append(status.Recordings, convertRecording(r))
	}
	return status
}

func convertNote(n database.Note) api.Note {
	return api.Note{
		Id:          n.Id,
		Title:       n.Title,
		Content:     n.Content,
		Tags:        database.DecodeTags(n.Tags),
		IsVoiceNote: n.IsVoiceNote,
		AudioKey:    n.AudioKey.String,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func convertNotes(ns []database.Note) []api.Note {
	notes := make([]api.Note, 0, len(ns))
	for _, n := range ns {
		notes = append(notes, convertNote(n))
	}
	return notes
}

func convertTodo(t database.Todo) api.Todo {
	todo := api.Todo{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.DueDate.Valid {
		due := t.DueDate.Time
		todo.DueDate = &due
	}
	return todo
}

func convertTodos(ts []database.Todo) []api.Todo {
	todos := make([]api.Todo, 0, len(ts))
	for _, t := range ts {
		todos = append(todos, convertTodo(t))
	}
	return todos
}

func convertFile(f database.FileItem) api.FileItem {
	return api.FileItem{
		Id:          f.Id,
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		UploadedAt:  f.UploadedAt,
	}
}

func convertFiles(fs []database.FileItem) []api.FileItem {
	files := make([]api.FileItem, 0, len(fs))
	for _, f := range fs {
		files = append(files, convertFile(f))
	}
	return files
}

func convertProfile(p database.UserProfile) api.UserProfile {
	profile := api.UserProfile{
		Id:            p.ClerkId,
		Email:         p.Email,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		ImageUrl:      p.ImageUrl,
		EmailVerified: p.EmailVerified,
		Stats: api.UserStats{
			TotalDataItems:     p.TotalDataItems,
			TotalFilesUploaded: p.TotalFilesUploaded,
			StorageUsed:        p.StorageUsed,
		},
		Preferences: []byte(p.Preferences),
		CreatedAt:   p.CreatedAt,
	}
	if len(profile.Preferences) == 0 {
		profile.Preferences = []byte("{}")
	}
	if p.LastLoginAt.Valid {
		last := p.LastLoginAt.Time
		profile.LastLoginAt = &last
	}
	return profile
}
