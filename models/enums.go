package models

type StockMovementType string

const (
	MovementTypeIn         StockMovementType = "in"
	MovementTypeOut        StockMovementType = "out"
	MovementTypeAdjustment StockMovementType = "adjustment"
)

func (t StockMovementType) Valid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment:
		return true
	}
	return false
}

type StockReferenceType string

const (
	ReferencePurchaseOrder StockReferenceType = "purchase_order"
	ReferenceSale          StockReferenceType = "sale"
	ReferenceAdjustment    StockReferenceType = "adjustment"
	ReferenceTransfer      StockReferenceType = "transfer"
)

func (t StockReferenceType) Valid() bool {
	switch t {
	case ReferencePurchaseOrder, ReferenceSale, ReferenceAdjustment, ReferenceTransfer:
		return true
	}
	return false
}

type StockAdjustmentType string

const (
	AdjustmentDamaged     StockAdjustmentType = "damaged"
	AdjustmentExpired     StockAdjustmentType = "expired"
	AdjustmentReturned    StockAdjustmentType = "returned"
	AdjustmentFound       StockAdjustmentType = "found"
	AdjustmentTheft       StockAdjustmentType = "theft"
	AdjustmentInternalUse StockAdjustmentType = "internal_use"
)

func (t StockAdjustmentType) Valid() bool {
	switch t {
	case AdjustmentDamaged, AdjustmentExpired, AdjustmentReturned,
		AdjustmentFound, AdjustmentTheft, AdjustmentInternalUse:
		return true
	}
	return false
}

// RequiresNegativeQuantity reports whether the type records a stock loss.
// The remaining types (found, returned) record a gain and require a positive
// quantity.
func (t StockAdjustmentType) RequiresNegativeQuantity() bool {
	switch t {
	case AdjustmentDamaged, AdjustmentExpired, AdjustmentTheft, AdjustmentInternalUse:
		return true
	}
	return false
}

// RequiresReason reports whether the type needs a substantive reason text
// (trimmed length over minAdjustmentReasonLen).
func (t StockAdjustmentType) RequiresReason() bool {
	return t == AdjustmentDamaged || t == AdjustmentTheft
}

const minAdjustmentReasonLen = 10

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderStatusOrdered   PurchaseOrderStatus = "ordered"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

func (s PurchaseOrderStatus) Valid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusOrdered,
		PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// purchaseOrderTransitions is the whole state machine: absent pairs are illegal.
// received and cancelled are terminal.
var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft:   {PurchaseOrderStatusOrdered, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusOrdered: {PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
}

func (s PurchaseOrderStatus) CanTransitionTo(next PurchaseOrderStatus) bool {
	for _, allowed := range purchaseOrderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PurchaseOrderStatus) Terminal() bool {
	return len(purchaseOrderTransitions[s]) == 0
}
