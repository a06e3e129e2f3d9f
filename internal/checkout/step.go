package checkout

import (
	"fmt"

	"storefront/internal/structs"
)

var transitions = map[structs.CheckoutStep][]structs.CheckoutStep{
	structs.StepAddress:         {structs.StepPayment},
	structs.StepPayment:         {structs.StepAddress, structs.StepSubmitting, structs.StepAwaitingGateway},
	structs.StepSubmitting:      {structs.StepPlaced, structs.StepFailed, structs.StepPayment},
	structs.StepAwaitingGateway: {structs.StepSubmitting, structs.StepPayment},
	structs.StepFailed:          {structs.StepPayment},
	structs.StepPlaced:          {},
}

func canTransition(from, to structs.CheckoutStep) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transition(from, to structs.CheckoutStep) (structs.CheckoutStep, error) {
	if !canTransition(from, to) {
		return from, fmt.Errorf("checkout %s -> %s: %w", from, to, structs.ErrIllegalTransition)
	}
	return to, nil
}
