package api

import (
	"fmt"
	"strings"
	"time"
)

func (r SubmitPriceRequest) Validate() error {
	if strings.TrimSpace(r.ProductID) == "" {
		return fmt.Errorf("productId is required")
	}
	if strings.TrimSpace(r.StoreID) == "" {
		return fmt.Errorf("storeId is required")
	}
	if r.Price < 0 {
		return fmt.Errorf("price must be >= 0")
	}
	if r.ObservedAt != "" {
		if _, err := time.Parse(time.RFC3339, r.ObservedAt); err != nil {
			return fmt.Errorf("observedAt must be RFC3339: %v", err)
		}
	}
	return nil
}

func (r CastVoteRequest) Validate() error {
	if strings.TrimSpace(r.VoterID) == "" {
		return fmt.Errorf("voterId is required")
	}
	return nil
}

func (r CreateAlertRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("userId is required")
	}
	if strings.TrimSpace(r.ProductID) == "" {
		return fmt.Errorf("productId is required")
	}
	if r.TargetPrice <= 0 {
		return fmt.Errorf("targetPrice must be greater than 0")
	}
	return nil
}
