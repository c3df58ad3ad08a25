package main

import (
	"errors"

	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	Username  string
	Email     string
	Password  string
	LowStock  bool
	Restock   bool
	Threshold int
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.ToDBOptions(false)); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加商品
	products := []models.Product{
		{Name: "Dark Truffle", Description: "70% cocoa truffle with a ganache center", Price: price(1.25), Stock: 40, Category: "Chocolate"},
		{Name: "Milk Chocolate Bar", Description: "Classic creamy milk chocolate", Price: price(2.50), Stock: 25, Category: "Chocolate"},
		{Name: "Sour Gummy Worms", Description: "Tangy two-tone gummy worms", Price: price(0.75), Stock: 4, Category: "Gummies"},
		{Name: "Gummy Bears", Description: "Assorted fruit gummy bears", Price: price(0.60), Stock: 60, Category: "Gummies"},
		{Name: "Rock Candy Stick", Description: "Crystallized sugar on a stick", Price: price(1.00), Stock: 0, Category: "Hard Candy"},
		{Name: "Peppermint Swirl", Description: "Striped peppermint hard candy", Price: price(0.20), Stock: 120, Category: "Hard Candy"},
		{Name: "Salted Caramel", Description: "Soft caramel with sea salt", Price: price(0.90), Stock: 2, Category: "Caramel"},
		{Name: "Licorice Twist", Description: "Red licorice twists", Price: price(0.50), Stock: 0, Category: "Licorice"},
	}
	productIDs := map[string]uint{}
	for i := range products {
		product := products[i]
		var existing models.Product
		err := models.DB.Where("name = ?", product.Name).First(&existing).Error
		switch {
		case err == nil:
			stdLog.Printf("Product already exists: %s", product.Name)
			productIDs[product.Name] = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Name, err)
				continue
			}
			stdLog.Printf("Created product: %s", product.Name)
			productIDs[product.Name] = product.ID
		default:
			stdLog.Printf("Failed to load product %s: %v", product.Name, err)
		}
	}

	// 添加演示用户与通知偏好
	users := []seedUser{
		{Username: "alice", Email: "alice@example.com", Password: "candy-alice-1", LowStock: true, Restock: true, Threshold: 5},
		{Username: "bob", Email: "bob@example.com", Password: "candy-bob-1", LowStock: false, Restock: true, Threshold: constants.DefaultLowStockThreshold},
	}
	userIDs := map[string]uint{}
	for _, item := range users {
		var existing models.User
		err := models.DB.Where("username = ?", item.Username).First(&existing).Error
		if err == nil {
			stdLog.Printf("User already exists: %s", item.Username)
			userIDs[item.Username] = existing.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			stdLog.Printf("Failed to load user %s: %v", item.Username, err)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(item.Password), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Printf("Failed to hash password for %s: %v", item.Username, err)
			continue
		}
		user := models.User{
			Username:     item.Username,
			Email:        item.Email,
			PasswordHash: string(hash),
			Status:       constants.UserStatusActive,
		}
		err = models.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			return tx.Create(&models.Preference{
				UserID:              user.ID,
				LowStockEmailAlerts: item.LowStock,
				RestockEmailAlerts:  item.Restock,
				LowStockThreshold:   item.Threshold,
			}).Error
		})
		if err != nil {
			stdLog.Printf("Failed to create user %s: %v", item.Username, err)
			continue
		}
		stdLog.Printf("Created user: %s", item.Username)
		userIDs[item.Username] = user.ID
	}

	// 关注列表与到货提醒
	threshold := 3
	watch := []models.WatchlistEntry{
		{UserID: userIDs["alice"], ProductID: productIDs["Sour Gummy Worms"], CustomThreshold: &threshold},
		{UserID: userIDs["alice"], ProductID: productIDs["Dark Truffle"]},
		{UserID: userIDs["bob"], ProductID: productIDs["Salted Caramel"]},
	}
	for _, entry := range watch {
		if entry.UserID == 0 || entry.ProductID == 0 {
			continue
		}
		result := models.DB.Where(models.WatchlistEntry{UserID: entry.UserID, ProductID: entry.ProductID}).FirstOrCreate(&entry)
		if result.Error != nil {
			stdLog.Printf("Failed to seed watchlist entry: %v", result.Error)
		}
	}

	if userIDs["bob"] != 0 && productIDs["Rock Candy Stick"] != 0 {
		alert := models.StockAlert{UserID: userIDs["bob"], ProductID: productIDs["Rock Candy Stick"]}
		result := models.DB.Where("user_id = ? AND product_id = ? AND notified = ?", alert.UserID, alert.ProductID, false).FirstOrCreate(&alert)
		if result.Error != nil {
			stdLog.Printf("Failed to seed stock alert: %v", result.Error)
		}
	}

	stdLog.Printf("Seed completed: %d products, %d users", len(productIDs), len(userIDs))
}

func price(amount float64) models.Money {
	return models.MoneyOf(decimal.NewFromFloat(amount))
}
