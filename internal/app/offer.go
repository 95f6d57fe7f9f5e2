package app

import (
	"fmt"
	"strings"

	"github.com/dkeye/audioingest/internal/domain"
	"github.com/pion/sdp/v3"
)

// ValidateOffer rejects anything that is not a parseable offer.
func ValidateOffer(offer domain.SessionDescription) error {
	if offer.Type != domain.SDPTypeOffer {
		return fmt.Errorf("%w: type %q is not an offer", domain.ErrInvalidOffer, offer.Type)
	}
	if strings.TrimSpace(offer.SDP) == "" {
		return fmt.Errorf("%w: missing sdp", domain.ErrInvalidOffer)
	}
	var parsed sdp.SessionDescription
	if err := parsed.UnmarshalString(offer.SDP); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidOffer, err)
	}
	return nil
}
