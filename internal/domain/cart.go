package domain

// Cart maps product id to quantity. A key is present only while its quantity is positive.
type Cart map[string]int

func (c Cart) Add(productID string, n int) {
	if n < 1 {
		n = 1
	}
	c[productID] += n
}

// Remove takes one unit of productID out of the cart.
func (c Cart) Remove(productID string) {
	q, ok := c[productID]
	if !ok {
		return
	}
	if q <= 1 {
		delete(c, productID)
		return
	}
	c[productID] = q - 1
}

// Total prices the cart; products missing from prices count as zero.
func (c Cart) Total(prices map[string]float64) float64 {
	total := 0.0
	for id, q := range c {
		total += prices[id] * float64(q)
	}
	return total
}

func (c Cart) Units() int {
	n := 0
	for _, q := range c {
		n += q
	}
	return n
}
