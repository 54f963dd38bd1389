package normalize

import (
	"sort"
	"time"

	"salesWarehouse/domain"
)

// NormalizedBatch is one staging batch deduplicated into entity sets, plus
// the staging ids to mark processed once the sets are committed.
type NormalizedBatch struct {
	Users      []domain.User
	Categories []domain.Category
	Products   []domain.Product
	Orders     []domain.Order
	OrderItems []domain.OrderItem
	StagingIDs []uint64
}

type productEntry struct {
	brand      string
	categoryID int64
}

type orderEntry struct {
	userID    int64
	eventTime int64 // unix nanos, latest wins
}

type itemKey struct {
	orderID   int64
	productID int64
	price     float64
}

// buildNormalizedBatch applies the batch-local merge rules: users by
// existence, categories prefer a non-"unknown" code, products prefer a
// non-"unknown" brand, orders prefer the latest event_time, order items by
// exact-tuple set semantics. The rules are commutative and idempotent, so
// row order within the batch does not matter.
func buildNormalizedBatch(rows []domain.SalesStaging) NormalizedBatch {
	users := make(map[int64]struct{})
	categories := make(map[int64]string)
	products := make(map[int64]productEntry)
	orders := make(map[int64]orderEntry)
	items := make(map[itemKey]struct{})
	stagingIDs := make([]uint64, 0, len(rows))

	for _, row := range rows {
		stagingIDs = append(stagingIDs, row.ID)

		users[row.UserID] = struct{}{}

		if existing, ok := categories[row.CategoryID]; ok {
			if existing == domain.UnknownLabel && row.CategoryCode != domain.UnknownLabel {
				categories[row.CategoryID] = row.CategoryCode
			}
		} else {
			categories[row.CategoryID] = row.CategoryCode
		}

		if existing, ok := products[row.ProductID]; ok {
			if existing.brand == domain.UnknownLabel && row.Brand != domain.UnknownLabel {
				products[row.ProductID] = productEntry{brand: row.Brand, categoryID: row.CategoryID}
			}
		} else {
			products[row.ProductID] = productEntry{brand: row.Brand, categoryID: row.CategoryID}
		}

		eventNanos := row.EventTime.UnixNano()
		if existing, ok := orders[row.OrderID]; ok {
			if existing.eventTime < eventNanos {
				orders[row.OrderID] = orderEntry{userID: row.UserID, eventTime: eventNanos}
			}
		} else {
			orders[row.OrderID] = orderEntry{userID: row.UserID, eventTime: eventNanos}
		}

		items[itemKey{orderID: row.OrderID, productID: row.ProductID, price: row.Price}] = struct{}{}
	}

	batch := NormalizedBatch{
		Users:      make([]domain.User, 0, len(users)),
		Categories: make([]domain.Category, 0, len(categories)),
		Products:   make([]domain.Product, 0, len(products)),
		Orders:     make([]domain.Order, 0, len(orders)),
		OrderItems: make([]domain.OrderItem, 0, len(items)),
		StagingIDs: stagingIDs,
	}

	for userID := range users {
		batch.Users = append(batch.Users, domain.User{UserID: userID})
	}
	for categoryID, code := range categories {
		batch.Categories = append(batch.Categories, domain.Category{
			CategoryID:   categoryID,
			CategoryCode: code,
		})
	}
	for productID, entry := range products {
		batch.Products = append(batch.Products, domain.Product{
			ProductID:  productID,
			Brand:      entry.brand,
			CategoryID: entry.categoryID,
		})
	}
	for orderID, entry := range orders {
		batch.Orders = append(batch.Orders, domain.Order{
			OrderID:   orderID,
			UserID:    entry.userID,
			EventTime: timeFromNanos(entry.eventTime),
		})
	}
	for key := range items {
		batch.OrderItems = append(batch.OrderItems, domain.OrderItem{
			OrderID:   key.orderID,
			ProductID: key.productID,
			Price:     key.price,
		})
	}

	// stable ordering keeps bulk statements deterministic
	sort.Slice(batch.Users, func(i, j int) bool { return batch.Users[i].UserID < batch.Users[j].UserID })
	sort.Slice(batch.Categories, func(i, j int) bool { return batch.Categories[i].CategoryID < batch.Categories[j].CategoryID })
	sort.Slice(batch.Products, func(i, j int) bool { return batch.Products[i].ProductID < batch.Products[j].ProductID })
	sort.Slice(batch.Orders, func(i, j int) bool { return batch.Orders[i].OrderID < batch.Orders[j].OrderID })
	sort.Slice(batch.OrderItems, func(i, j int) bool {
		a, b := batch.OrderItems[i], batch.OrderItems[j]
		if a.OrderID != b.OrderID {
			return a.OrderID < b.OrderID
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.Price < b.Price
	})

	return batch
}

func timeFromNanos(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}
