package domain

type ctxKey string

const ActorCtxKey ctxKey = "sos-actor"

const (
	ItemTypeDonation = "doacao"
	ItemTypeReceipt  = "recebimento"
	ItemTypeCampaign = "campanha"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ClampLimit normalizes a caller supplied page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
