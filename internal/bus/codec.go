package bus

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// ContentType labels encoded broker payloads.
const ContentType = "application/cbor"

// envelope is the broker payload. Integer keys keep it compact.
type envelope struct {
	ID     string              `cbor:"1,keyasint"`
	SentAt int64               `cbor:"2,keyasint"`
	Update model.BookingUpdate `cbor:"3,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding: the same update always yields the
	// same bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bus: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("bus: CBOR decoder initialization failed: " + err.Error())
	}
}

// encode wraps update in a new envelope and returns its ID and bytes.
func encode(update model.BookingUpdate) (string, []byte, error) {
	env := envelope{
		ID:     uuid.NewString(),
		SentAt: time.Now().UnixMilli(),
		Update: update,
	}
	data, err := encMode.Marshal(env)
	if err != nil {
		return "", nil, fmt.Errorf("encoding booking update: %w", err)
	}
	return env.ID, data, nil
}

func decode(data []byte) (envelope, error) {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("decoding booking update: %w", err)
	}
	return env, nil
}
