package eviction

import "container/list"

// ordered keeps keys in a list with the next victim at the back. LRU and FIFO differ only
// in whether a read moves a key to the front.
type ordered struct {
	order      *list.List
	elems      map[string]*list.Element
	touchOnGet bool
}

func newOrdered(touchOnGet bool) *ordered {
	return &ordered{
		order:      list.New(),
		elems:      make(map[string]*list.Element),
		touchOnGet: touchOnGet,
	}
}

func (o *ordered) OnGet(key string) {
	if !o.touchOnGet {
		return
	}
	if el, ok := o.elems[key]; ok {
		o.order.MoveToFront(el)
	}
}

// OnPut tracks new keys. A replaced key keeps its position; for LRU a refresh counts as use.
func (o *ordered) OnPut(key string) {
	if el, ok := o.elems[key]; ok {
		if o.touchOnGet {
			o.order.MoveToFront(el)
		}
		return
	}
	o.elems[key] = o.order.PushFront(key)
}

func (o *ordered) Remove(key string) {
	if el, ok := o.elems[key]; ok {
		o.order.Remove(el)
		delete(o.elems, key)
	}
}

func (o *ordered) Evict() string {
	back := o.order.Back()
	if back == nil {
		return ""
	}
	key := o.order.Remove(back).(string)
	delete(o.elems, key)
	return key
}
