package testinfra

// Fixture creates the orders table and one routine of each kind the
// PostgreSQL dialect distinguishes:
//
//	order_count  scalar function
//	orders_for   set-returning function (OUT columns)
//	add_order    procedure with an INOUT argument
//
// Three orders are seeded, so the next order id is 4.
const Fixture = `
CREATE TABLE orders (
    id           serial PRIMARY KEY,
    customer_id  int    NOT NULL,
    amount_cents int    NOT NULL,
    note         text
);

INSERT INTO orders (customer_id, amount_cents, note) VALUES
    (1, 1050, 'first'),
    (1, 2000, NULL),
    (2, 525,  'other');

CREATE FUNCTION order_count(p_customer_id int) RETURNS bigint
LANGUAGE sql STABLE AS $$
    SELECT count(*) FROM orders WHERE customer_id = p_customer_id
$$;

CREATE FUNCTION orders_for(p_customer_id int)
RETURNS TABLE (order_id int, amount_cents int)
LANGUAGE sql STABLE AS $$
    SELECT o.id, o.amount_cents FROM orders AS o
    WHERE o.customer_id = p_customer_id
    ORDER BY o.id
$$;

CREATE PROCEDURE add_order(p_customer_id int, p_amount_cents int, INOUT p_order_id int DEFAULT NULL)
LANGUAGE plpgsql AS $$
BEGIN
    INSERT INTO orders (customer_id, amount_cents) VALUES (p_customer_id, p_amount_cents)
    RETURNING id INTO p_order_id;
END
$$;
`
