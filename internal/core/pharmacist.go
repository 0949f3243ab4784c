package core

import (
	"context"
	"strings"

	"ethicure/internal/docstore"
	"ethicure/pkg/domain"
)

// Pharmacy form messages.
const (
	MsgInventoryItem = "Fill all fields with valid values."
	MsgRestock       = "Enter a valid stock amount"
)

// DefaultUnit is used for inventory items entered without a unit.
const DefaultUnit = "tablets"

// PrescriptionFilter narrows the pharmacy prescription list.
type PrescriptionFilter string

// Prescription filters.
const (
	FilterAll       PrescriptionFilter = "all"
	FilterPending   PrescriptionFilter = "pending"
	FilterDispensed PrescriptionFilter = "dispensed"
)

// NewInventoryItem is a stock entry entered at the counter.
type NewInventoryItem struct {
	Name      string
	Stock     int
	Unit      string
	Threshold int
}

// Pharmacist is the pharmacy counter workspace.
type Pharmacist struct {
	*Workspace[domain.PharmacistDocument]
}

// OpenPharmacist loads the pharmacist document for owner.
func OpenPharmacist(ctx context.Context, store *docstore.Store[domain.PharmacistDocument], owner domain.Owner, opts ...Option) (*Pharmacist, error) {
	w, err := Open(ctx, store, owner, opts...)
	if err != nil {
		return nil, err
	}
	return &Pharmacist{Workspace: w}, nil
}

// AddInventoryItem appends a stock entry. The name must be non-empty, the
// stock positive and the threshold non-negative.
func (p *Pharmacist) AddInventoryItem(ctx context.Context, in NewInventoryItem) (domain.InventoryItem, error) {
	name := strings.TrimSpace(in.Name)
	fe := domain.FieldErrors{}
	if name == "" {
		fe.Add("name", MsgInventoryItem)
	}
	if in.Stock <= 0 {
		fe.Add("stock", MsgInventoryItem)
	}
	if in.Threshold < 0 {
		fe.Add("threshold", MsgInventoryItem)
	}
	if err := fe.Err(); err != nil {
		return domain.InventoryItem{}, err
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = DefaultUnit
	}
	item := domain.InventoryItem{
		ID:                p.newID("med"),
		MedicineName:      name,
		Stock:             in.Stock,
		Unit:              unit,
		LowStockThreshold: in.Threshold,
	}
	err := p.Mutate(ctx, "pharmacist.add_inventory", func(doc *domain.PharmacistDocument) error {
		doc.Inventory = append(doc.Inventory, item)
		return nil
	})
	return item, err
}

// Restock adds amount to the stock of the item with id.
func (p *Pharmacist) Restock(ctx context.Context, id string, amount int) (domain.InventoryItem, error) {
	if amount <= 0 {
		return domain.InventoryItem{}, domain.FieldErrors{"amount": MsgRestock}
	}
	var out domain.InventoryItem
	err := p.Mutate(ctx, "pharmacist.restock", func(doc *domain.PharmacistDocument) error {
		updated, err := update(doc.Inventory, domain.EntityInventoryItem, id, func(item *domain.InventoryItem) {
			item.Stock += amount
		})
		out = updated
		return err
	})
	return out, err
}

// RemoveItem drops the inventory item with id.
func (p *Pharmacist) RemoveItem(ctx context.Context, id string) error {
	return p.Mutate(ctx, "pharmacist.remove_inventory", func(doc *domain.PharmacistDocument) error {
		inventory, err := remove(doc.Inventory, domain.EntityInventoryItem, id)
		if err != nil {
			return err
		}
		doc.Inventory = inventory
		return nil
	})
}

// Dispense marks the prescription with id as dispensed.
func (p *Pharmacist) Dispense(ctx context.Context, id string) error {
	return p.Mutate(ctx, "pharmacist.dispense", func(doc *domain.PharmacistDocument) error {
		rx, err := lookup(doc.Prescriptions, domain.EntityPrescription, id)
		if err != nil {
			return err
		}
		if err := domain.DispenseLifecycle.Check(id, rx.Status(), domain.DispenseDispensed); err != nil {
			return err
		}
		rx.Dispensed = true
		return nil
	})
}

// Prescriptions lists the prescriptions matching f. Unknown filters behave
// like FilterAll.
func (p *Pharmacist) Prescriptions(f PrescriptionFilter) []domain.PharmacyPrescription {
	all := p.view().Prescriptions
	switch f {
	case FilterPending:
		return filter(all, func(rx domain.PharmacyPrescription) bool { return !rx.Dispensed })
	case FilterDispensed:
		return filter(all, func(rx domain.PharmacyPrescription) bool { return rx.Dispensed })
	default:
		return all
	}
}

// PharmacistSummary backs the pharmacy dashboard cards.
type PharmacistSummary struct {
	Pending  int
	Items    int
	LowStock int
}

// Summary counts pending prescriptions, inventory items and items at or
// below their threshold, out-of-stock items included.
func (p *Pharmacist) Summary() PharmacistSummary {
	doc := p.data()
	return PharmacistSummary{
		Pending: count(doc.Prescriptions, func(rx domain.PharmacyPrescription) bool { return !rx.Dispensed }),
		Items:   len(doc.Inventory),
		LowStock: count(doc.Inventory, func(item domain.InventoryItem) bool {
			return item.Level() != domain.StockIn
		}),
	}
}
