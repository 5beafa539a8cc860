package store

// SQL query constants organized by entity.
// All SQL lives here; PostgresStore methods reference these constants.

// Account queries.
const (
	queryUpsertAccount = `
		INSERT INTO accounts (
			user_id, meli_user_id, access_token, refresh_token,
			expires_at, created_at, updated_at
		) VALUES (
			@user_id, @meli_user_id, @access_token, @refresh_token,
			@expires_at, now(), now()
		)
		ON CONFLICT (user_id) DO UPDATE SET
			meli_user_id = EXCLUDED.meli_user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	queryGetAccount = `
		SELECT id, user_id, meli_user_id, access_token, refresh_token,
			expires_at, created_at, updated_at
		FROM accounts
		WHERE user_id = $1`

	queryListAccounts = `
		SELECT id, user_id, meli_user_id, access_token, refresh_token,
			expires_at, created_at, updated_at
		FROM accounts
		ORDER BY created_at ASC`

	queryUpdateAccountTokens = `
		UPDATE accounts SET
			access_token = $2,
			refresh_token = $3,
			expires_at = $4,
			updated_at = now()
		WHERE user_id = $1`
)

// Authorization code queries. The log is append-only; rows are never
// updated or deleted.
const (
	queryInsertAuthCode = `
		INSERT INTO auth_codes (user_id, code, created_at)
		VALUES (@user_id, @code, now())
		RETURNING id, created_at`

	queryGetLatestAuthCode = `
		SELECT id, user_id, code, created_at
		FROM auth_codes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
)

// Listing queries.
const (
	queryUpsertListing = `
		INSERT INTO listings (
			user_id, item_id, title, category_id,
			price, currency_id, available_quantity, sold_quantity,
			listing_type_id, status, permalink, thumbnail,
			last_updated
		) VALUES (
			@user_id, @item_id, @title, @category_id,
			@price, @currency_id, @available_quantity, @sold_quantity,
			@listing_type_id, @status, @permalink, @thumbnail,
			now()
		)
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			title = EXCLUDED.title,
			category_id = EXCLUDED.category_id,
			price = EXCLUDED.price,
			currency_id = EXCLUDED.currency_id,
			available_quantity = EXCLUDED.available_quantity,
			sold_quantity = EXCLUDED.sold_quantity,
			listing_type_id = EXCLUDED.listing_type_id,
			status = EXCLUDED.status,
			permalink = EXCLUDED.permalink,
			thumbnail = EXCLUDED.thumbnail,
			last_updated = now()
		RETURNING id, last_updated`
)

// Sale queries.
const (
	queryUpsertSale = `
		INSERT INTO sales (
			user_id, sale_id, sale_date, shipping_status,
			quantity, total_amount,
			publication_id, publication_title, unit_price,
			buyer_nickname,
			shipping_address, shipping_city, shipping_state, shipping_country, shipping_zip,
			updated_at
		) VALUES (
			@user_id, @sale_id, @sale_date, @shipping_status,
			@quantity, @total_amount,
			@publication_id, @publication_title, @unit_price,
			@buyer_nickname,
			@shipping_address, @shipping_city, @shipping_state, @shipping_country, @shipping_zip,
			now()
		)
		ON CONFLICT (user_id, sale_id) DO UPDATE SET
			sale_date = EXCLUDED.sale_date,
			shipping_status = EXCLUDED.shipping_status,
			quantity = EXCLUDED.quantity,
			total_amount = EXCLUDED.total_amount,
			publication_id = EXCLUDED.publication_id,
			publication_title = EXCLUDED.publication_title,
			unit_price = EXCLUDED.unit_price,
			buyer_nickname = EXCLUDED.buyer_nickname,
			shipping_address = EXCLUDED.shipping_address,
			shipping_city = EXCLUDED.shipping_city,
			shipping_state = EXCLUDED.shipping_state,
			shipping_country = EXCLUDED.shipping_country,
			shipping_zip = EXCLUDED.shipping_zip,
			updated_at = now()
		RETURNING id, updated_at`
)

// Sync run queries.
const (
	queryInsertSyncRun = `
		INSERT INTO sync_runs (user_id, job_name, status, started_at)
		VALUES ($1, $2, 'running', now())
		RETURNING id`

	queryCompleteSyncRun = `
		UPDATE sync_runs SET
			status = $2,
			error_text = $3,
			rows_affected = $4,
			completed_at = now()
		WHERE id = $1`

	queryListSyncRuns = `
		SELECT id, user_id, job_name, started_at, completed_at,
			status, COALESCE(error_text, ''), rows_affected
		FROM sync_runs
		WHERE user_id = $1 AND ($2 = '' OR job_name = $2)
		ORDER BY started_at DESC
		LIMIT $3`

	queryGetLastCompletedSync = `
		SELECT id, user_id, job_name, started_at, completed_at,
			status, COALESCE(error_text, ''), rows_affected
		FROM sync_runs
		WHERE user_id = $1 AND job_name = $2 AND status = 'succeeded'
		ORDER BY completed_at DESC
		LIMIT 1`
)
