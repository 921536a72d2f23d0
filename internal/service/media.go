package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/metrics"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/storage"
)

// Storage tiers reported back to the uploader.
const (
	StorageDual      = "dual"
	StorageLocalOnly = "local-only"
)

// ErrUnknownRecordingType is returned for a type tag other than user-only or
// complete.
var ErrUnknownRecordingType = errors.New("unknown recording type")

// LocalStore writes the backup copy of a media file.
type LocalStore interface {
	Save(name string, data []byte) (string, error)
}

// MediaService saves recordings locally, then best-effort to object storage,
// and records the references on the interview.
type MediaService struct {
	Interviews InterviewStore
	Resolver   *repository.Resolver
	Local      LocalStore
	Remote     storage.ObjectStore
	Log        *zap.Logger
	Now        func() time.Time
}

// MediaResult is the upload response body.
type MediaResult struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	LocalPath     string  `json:"localPath"`
	S3URL         *string `json:"s3Url"`
	FileName      string  `json:"fileName"`
	RecordingType string  `json:"recordingType,omitempty"`
	Storage       string  `json:"storage"`
}

func (s *MediaService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *MediaService) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// videoFields returns the local and remote field names for a recording type.
func videoFields(recordingType string) (suffix, local, remote string, err error) {
	switch recordingType {
	case "", model.RecordingUserOnly:
		return "user", "video", "videoS3", nil
	case model.RecordingComplete:
		return "complete", "videoComplete", "videoCompleteS3", nil
	}
	return "", "", "", fmt.Errorf("%w: %q", ErrUnknownRecordingType, recordingType)
}

// IngestVideo stores a candidate recording for the interview addressed by
// token.  The interview record update is best effort: once the local file
// is written the upload is reported as successful.
func (s *MediaService) IngestVideo(ctx context.Context, token, recordingType string, data []byte) (*MediaResult, error) {
	suffix, localField, remoteField, err := videoFields(recordingType)
	if err != nil {
		return nil, err
	}
	if recordingType == "" {
		recordingType = model.RecordingUserOnly
	}
	now := s.now()

	// The file is named after the token as given, like the link it came from.
	name := fmt.Sprintf("interview_%s_%s_%d.webm", token, suffix, now.UnixMilli())
	res, err := s.store(ctx, name, storage.VideoPrefix, storage.VideoContentType, data)
	if err != nil {
		return nil, err
	}
	res.RecordingType = recordingType
	res.Message = "Video uploaded successfully"

	p := model.NewPatch().Set(localField, res.LocalPath).Set("updatedAt", now)
	if res.S3URL != nil {
		p.Set(remoteField, *res.S3URL)
	}
	s.record(ctx, token, p)
	return res, nil
}

// IngestAudio stores voice-agent conversation audio as <conversationID>.mp3.
// The caller records the references on the interview.
func (s *MediaService) IngestAudio(ctx context.Context, conversationID string, data []byte) (*MediaResult, error) {
	res, err := s.store(ctx, conversationID+".mp3", storage.AudioPrefix, storage.AudioContentType, data)
	if err != nil {
		return nil, err
	}
	res.Message = "Audio stored successfully"
	return res, nil
}

func (s *MediaService) store(ctx context.Context, name, prefix, contentType string, data []byte) (*MediaResult, error) {
	local, err := s.Local.Save(name, data)
	if err != nil {
		return nil, fmt.Errorf("save local copy: %w", err)
	}
	res := &MediaResult{Success: true, LocalPath: local, FileName: name, Storage: StorageLocalOnly}

	remote := s.Remote
	if remote == nil {
		remote = storage.Disabled{}
	}
	log := s.log().With(zap.String("file", name))
	if err := remote.Ping(ctx); err != nil {
		if !errors.Is(err, storage.ErrNotConfigured) {
			log.Warn("object storage unreachable, keeping local copy only", zap.Error(err))
		}
	} else if url, err := remote.Put(ctx, prefix+name, data, contentType); err != nil {
		log.Warn("object storage upload failed", zap.Error(err))
	} else {
		res.S3URL = &url
		res.Storage = StorageDual
	}
	metrics.MediaUpload(res.Storage)
	return res, nil
}

// record applies p to the interview addressed by token, falling back to the
// raw link when the token no longer resolves.  Failures are only logged.
func (s *MediaService) record(ctx context.Context, token string, p *model.Patch) {
	filter := bson.M{"uniqueLink": token}
	if s.Resolver != nil {
		if f, err := s.Resolver.FilterFor(ctx, token); err == nil {
			filter = f
		}
	}
	matched, err := s.Interviews.ApplyPatch(ctx, filter, p)
	switch {
	case err != nil:
		s.log().Error("record media on interview failed", zap.String("token", token), zap.Error(err))
	case !matched:
		s.log().Warn("no interview matched media upload", zap.String("token", token))
	}
}
