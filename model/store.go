package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariebrainware/heart-risk/util"
	"gorm.io/gorm"
)

// ErrUsernameTaken is returned when a signup collides with an existing username.
var ErrUsernameTaken = errors.New("username already exists")

// Models lists every table owned by the application.
var Models = []interface{}{
	&User{},
	&Prediction{},
	&Contact{},
}

// Migrate creates the users, predictions and contacts tables if they are absent.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UsernameExists reports whether a user with the given username is stored.
func UsernameExists(db *gorm.DB, username string) (bool, error) {
	var count int64
	if err := db.Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser inserts a new user. The password fields must already be hashed.
func CreateUser(db *gorm.DB, user *User) error {
	if err := db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindUserByUsername loads a user; gorm.ErrRecordNotFound is returned unwrapped when absent.
func FindUserByUsername(db *gorm.DB, username string) (User, error) {
	var user User
	err := db.Where("username = ?", username).First(&user).Error
	return user, err
}

func CreatePrediction(db *gorm.DB, prediction *Prediction) error {
	if err := db.Create(prediction).Error; err != nil {
		return fmt.Errorf("create prediction: %w", err)
	}
	return nil
}

func CreateContact(db *gorm.DB, contact *Contact) error {
	if err := db.Create(contact).Error; err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// ListUsers, ListPredictions and ListContacts back the inspect command only;
// the web handlers never read these tables back.
func ListUsers(db *gorm.DB) ([]User, error) {
	var users []User
	err := db.Order("id").Find(&users).Error
	return users, err
}

func ListPredictions(db *gorm.DB) ([]Prediction, error) {
	var predictions []Prediction
	err := db.Order("id").Find(&predictions).Error
	return predictions, err
}

func ListContacts(db *gorm.DB) ([]Contact, error) {
	var contacts []Contact
	err := db.Order("id").Find(&contacts).Error
	return contacts, err
}

// NewUser salts and hashes password into a User ready to insert.
func NewUser(username, password string) (User, error) {
	salt, err := util.GenerateSalt()
	if err != nil {
		return User{}, err
	}
	hashed, err := util.HashPasswordArgon2(password, salt)
	if err != nil {
		return User{}, err
	}
	return User{Username: username, Password: hashed, PasswordSalt: salt}, nil
}
