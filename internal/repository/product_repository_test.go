package repository

import "testing"

func TestProductRepositoryDecrementStockIsConditional(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewProductRepository(db)
	product := createTestProduct(t, db, "Gummy Bears", "Gummies", 3)

	affected, err := repo.DecrementStock(product.ID, 2)
	if err != nil || affected != 1 {
		t.Fatalf("expected first decrement to apply, affected=%d err=%v", affected, err)
	}
	affected, err = repo.DecrementStock(product.ID, 2)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected second decrement to be rejected")
	}
	stock, err := repo.GetStock(product.ID)
	if err != nil || stock != 1 {
		t.Fatalf("expected stock 1, got %d err=%v", stock, err)
	}
}

func TestProductRepositoryAdjustStock(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewProductRepository(db)
	product := createTestProduct(t, db, "Lollipop", "Hard Candy", 0)

	if _, err := repo.AdjustStock(product.ID, 5); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if _, err := repo.AdjustStock(product.ID, -7); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	stock, _ := repo.GetStock(product.ID)
	if stock != -2 {
		t.Fatalf("stock is not clamped, expected -2 got %d", stock)
	}
}

func TestProductRepositoryListAndCategories(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewProductRepository(db)
	createTestProduct(t, db, "Sour Worms", "Gummies", 10)
	createTestProduct(t, db, "Gummy Bears", "Gummies", 0)
	createTestProduct(t, db, "Dark Chocolate Bar", "Chocolate", 4)

	products, total, err := repo.List(ProductListFilter{Search: "gummy", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(products) != 1 || products[0].Name != "Gummy Bears" {
		t.Fatalf("unexpected search result: total=%d products=%+v", total, products)
	}

	inStock := true
	products, total, err = repo.List(ProductListFilter{Category: "Gummies", InStock: &inStock, OrderBy: "name"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || products[0].Name != "Sour Worms" {
		t.Fatalf("unexpected category filter result: %+v", products)
	}

	categories, err := repo.ListCategories()
	if err != nil {
		t.Fatalf("list categories failed: %v", err)
	}
	if len(categories) != 2 || categories[0] != "Chocolate" || categories[1] != "Gummies" {
		t.Fatalf("unexpected categories: %v", categories)
	}
}

func TestProductRepositoryGetByIDMissing(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewProductRepository(db)
	product, err := repo.GetByID(999)
	if err != nil || product != nil {
		t.Fatalf("expected nil product without error, got %+v err=%v", product, err)
	}
}
