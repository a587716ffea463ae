package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"novacall/internal/store"
)

// Collection is the document store collection holding call tasks.
const Collection = "calltask"

var (
	// ErrValidation is returned for malformed task input, before persistence.
	ErrValidation = errors.New("task: invalid input")
	// ErrNotFound is returned when a referenced task id is absent.
	ErrNotFound = errors.New("task: not found")
	// ErrInvalidStatus is returned when a status write carries an
	// unrecognized value.
	ErrInvalidStatus = errors.New("task: unrecognized status")
	// ErrInvalidTransition is returned by the engine when a status change
	// would violate the monotonic lifecycle.
	ErrInvalidTransition = errors.New("task: invalid status transition")
)

// Repository persists call tasks in the calltask collection.
//
// It validates input and normalizes store documents to typed entities. It does
// not enforce transition order on UpdateStatus; that authority belongs to the
// execution engine (Status.CanTransition).
type Repository struct {
	store store.Store
	clock func() time.Time
}

func NewRepository(s store.Store) *Repository {
	return &Repository{store: s, clock: time.Now}
}

// Create validates and persists a new task with status pending.
func (r *Repository) Create(ctx context.Context, in NewCallTask) (string, error) {
	if err := validate(in); err != nil {
		return "", err
	}

	t := CallTask{
		TargetPhone:        in.TargetPhone,
		Intent:             in.Intent,
		Script:             in.Script,
		TalkingPoints:      in.TalkingPoints,
		FallbackConditions: in.FallbackConditions,
		VoiceModelID:       in.VoiceModelID,
		ConsentRequired:    in.ConsentRequired,
		Status:             StatusPending,
		CreatedAt:          r.clock().UTC(),
	}

	doc, err := encodeTask(t)
	if err != nil {
		return "", err
	}
	return r.store.Create(ctx, Collection, doc)
}

// Get returns the task by id, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (CallTask, error) {
	doc, err := r.store.GetByID(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CallTask{}, ErrNotFound
		}
		return CallTask{}, err
	}
	return decodeTask(doc)
}

// UpdateStatus writes the status field of an existing task. It rejects
// unrecognized status values but deliberately accepts any recognized one;
// lifecycle order is the engine's responsibility.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	err := r.store.UpdateByID(ctx, Collection, id, store.Document{"status": string(status)})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func validate(in NewCallTask) error {
	if in.TargetPhone == "" {
		return fmt.Errorf("%w: target_phone is required", ErrValidation)
	}
	if in.Intent == "" {
		return fmt.Errorf("%w: intent is required", ErrValidation)
	}
	if in.VoiceModelID == "" {
		return fmt.Errorf("%w: voice_model_id is required", ErrValidation)
	}
	return nil
}

// encodeTask/decodeTask round-trip through JSON so the stored document shape
// matches the entity's wire shape regardless of the Store implementation.

func encodeTask(t CallTask) (store.Document, error) {
	t.ID = ""
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var doc store.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	delete(doc, "id")
	return doc, nil
}

func decodeTask(doc store.Document) (CallTask, error) {
	id, _ := doc[store.IDKey].(string)
	delete(doc, store.IDKey)

	payload, err := json.Marshal(doc)
	if err != nil {
		return CallTask{}, err
	}
	var t CallTask
	if err := json.Unmarshal(payload, &t); err != nil {
		return CallTask{}, err
	}
	t.ID = id
	return t, nil
}
