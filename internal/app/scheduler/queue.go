package scheduler

import "container/heap"

// requestQueue реализует heap.Interface. Наверху — самый срочный запрос:
// наименьший Priority, при равенстве — самый старый (FIFO внутри приоритета).
type requestQueue []*Request

func (q requestQueue) Len() int { return len(q) }

func (q requestQueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority < q[j].Priority
	}
	// Одинаковый приоритет: старший первым
	return q[i].CreatedAt.Before(q[j].CreatedAt)
}

func (q requestQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *requestQueue) Push(x any) {
	*q = append(*q, x.(*Request))
}

func (q *requestQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// removeByID извлекает запрос по id; nil, если не найден.
func (q *requestQueue) removeByID(id string) *Request {
	for i, r := range *q {
		if r.ID == id {
			return heap.Remove(q, i).(*Request)
		}
	}
	return nil
}

// evictWorst извлекает наименее срочный запрос: численно наибольший
// приоритет, при равенстве — самый старый.
func (q *requestQueue) evictWorst() *Request {
	if len(*q) == 0 {
		return nil
	}
	worst := 0
	for i := 1; i < len(*q); i++ {
		cand, cur := (*q)[i], (*q)[worst]
		if cand.Priority > cur.Priority ||
			(cand.Priority == cur.Priority && cand.CreatedAt.Before(cur.CreatedAt)) {
			worst = i
		}
	}
	return heap.Remove(q, worst).(*Request)
}
