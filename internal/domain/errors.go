package domain

import "errors"

// ErrNotFound возвращается, когда запись отсутствует в хранилище.
var ErrNotFound = errors.New("запись не найдена")

// ErrInvalidDate возвращается при невозможной календарной дате в запросе.
var ErrInvalidDate = errors.New("некорректная дата")

// ErrInvalidPage возвращается при некорректном номере страницы в запросе.
var ErrInvalidPage = errors.New("некорректный номер страницы")

// ErrNeverLeft возвращается, когда у пользователя нет ни одного QUIT или PART.
var ErrNeverLeft = errors.New("пользователь не покидал канал")
