package models

const (
	StatusActive    = "Active"
	StatusCompleted = "Completed"
	StatusAvailable = "Available"
	StatusRented    = "Rented"
)

const (
	// TransactionIDPrefix и ширина номера: последовательность 1 → "T0001".
	TransactionIDPrefix = "T"
	TransactionIDWidth  = 4

	// FirstSequence первое значение счётчика транзакций
	FirstSequence int64 = 1

	// Currency валюта тарифов
	Currency = "DKK"
)
