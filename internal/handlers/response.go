package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// writeJSON отправляет ответ в формате JSON с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Клиент уже получил статус, сложно что-то изменить
		log.Printf("[Handlers] Ошибка кодирования ответа: %v", err)
	}
}
