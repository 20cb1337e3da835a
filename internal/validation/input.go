package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
	MaxPasswordLength = 72 // предел bcrypt
	MinReasonLength   = 5
	MaxReasonLength   = 500
	MaxOpinionLength  = 1000
	MaxCampusLength   = 100
	MaxWeightKg       = 1000.0
)

var studentIDPattern = regexp.MustCompile(`^[0-9]{6,12}$`)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateStudentID проверяет формат номера студенческого билета.
func ValidateStudentID(studentID string) error {
	if studentID == "" {
		return fmt.Errorf("номер студенческого билета обязателен")
	}
	if !studentIDPattern.MatchString(studentID) {
		return fmt.Errorf("некорректный номер студенческого билета")
	}
	return nil
}

// ValidatePassword проверяет пароль.
func ValidatePassword(password string) error {
	return ValidateLength("пароль", password, MinPasswordLength, MaxPasswordLength)
}

// ValidateWeight проверяет вес книги в килограммах.
func ValidateWeight(weight float64) error {
	if weight <= 0 {
		return fmt.Errorf("вес должен быть положительным")
	}
	if weight > MaxWeightKg {
		return fmt.Errorf("вес не может превышать %.0f кг", MaxWeightKg)
	}
	return nil
}

// ValidatePoints проверяет количество штрафных баллов.
func ValidatePoints(points int) error {
	if points <= 0 {
		return fmt.Errorf("количество баллов должно быть положительным")
	}
	return nil
}
