package store

// SQL query constants organized by entity.
// All SQL lives here; PostgresStore methods reference these constants.

// listingColumns is the canonical column list shared by every query that
// hydrates a full domain.Listing.
const listingColumns = `id, url, title, COALESCE(description, ''),
		price, mileage, year, COALESCE(fuel, ''), COALESCE(gearbox, ''), horsepower, COALESCE(trim_level, ''),
		COALESCE(location, ''), COALESCE(zipcode, ''),
		seller_rating, seller_rating_count,
		status, user_status, is_favorite, COALESCE(price_history, '[]'),
		scores, analysis,
		published_at, first_seen_at, last_seen_at, updated_at,
		ARRAY(SELECT search_id::text FROM search_listings WHERE listing_id = listings.id)`

// Listing queries.
const (
	queryUpsertListing = `
		INSERT INTO listings (
			url, title, description,
			price, mileage, year, fuel, gearbox, horsepower, trim_level,
			location, zipcode,
			seller_rating, seller_rating_count,
			status, user_status, price_history,
			published_at, first_seen_at, last_seen_at, updated_at
		) VALUES (
			@url, @title, @description,
			@price, @mileage, @year, @fuel, @gearbox, @horsepower, @trim_level,
			@location, @zipcode,
			@seller_rating, @seller_rating_count,
			'ACTIVE', 'NORMAL', jsonb_build_array(jsonb_build_object('price', @price, 'observed_at', now())),
			@published_at, now(), now(), now()
		)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price_history = CASE
				WHEN listings.price IS DISTINCT FROM EXCLUDED.price
				THEN listings.price_history || jsonb_build_object('price', EXCLUDED.price, 'observed_at', now())
				ELSE listings.price_history
			END,
			price = EXCLUDED.price,
			mileage = COALESCE(EXCLUDED.mileage, listings.mileage),
			year = COALESCE(EXCLUDED.year, listings.year),
			fuel = EXCLUDED.fuel,
			gearbox = EXCLUDED.gearbox,
			horsepower = COALESCE(EXCLUDED.horsepower, listings.horsepower),
			trim_level = EXCLUDED.trim_level,
			location = EXCLUDED.location,
			zipcode = EXCLUDED.zipcode,
			seller_rating = COALESCE(EXCLUDED.seller_rating, listings.seller_rating),
			seller_rating_count = EXCLUDED.seller_rating_count,
			status = CASE WHEN listings.status = 'ARCHIVED' THEN 'ACTIVE' ELSE listings.status END,
			last_seen_at = now(),
			updated_at = now()
		RETURNING id, status, user_status, is_favorite, first_seen_at, last_seen_at, updated_at`

	queryLinkListingSearch = `
		INSERT INTO search_listings (search_id, listing_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	queryGetListingByID = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE id = $1`

	queryGetListingByURL = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE url = $1`

	queryUpdateScores = `
		UPDATE listings SET
			scores = $2,
			analysis = $3,
			updated_at = now()
		WHERE id = $1`

	queryUpdateScoresOnly = `
		UPDATE listings SET
			scores = $2,
			updated_at = now()
		WHERE id = $1`

	queryListUnscoredListings = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE analysis IS NOT NULL AND scores IS NULL
		ORDER BY first_seen_at DESC
		LIMIT $1`

	queryListRescorableListings = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE analysis IS NOT NULL
		ORDER BY first_seen_at DESC`

	queryListScoredActiveListings = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE status = 'ACTIVE'
		  AND scores IS NOT NULL
		  AND id IN (SELECT listing_id FROM search_listings WHERE search_id = $1)
		ORDER BY first_seen_at DESC`

	querySetUserStatus = `
		UPDATE listings SET
			user_status = $2,
			updated_at = now()
		WHERE id = $1`

	querySetFavorite = `
		UPDATE listings SET
			is_favorite = $2,
			updated_at = now()
		WHERE id = $1`

	queryMarkSold = `
		UPDATE listings SET
			status = 'SOLD',
			updated_at = now()
		WHERE id = $1`

	queryArchiveStaleListings = `
		UPDATE listings SET
			status = 'ARCHIVED',
			updated_at = now()
		WHERE status = 'ACTIVE' AND last_seen_at < $1`
)

// Training-cohort queries.
const (
	// One row per listing in the search scope, numeric fields cast to float8
	// so missing values come back as NULLs rather than zero values.
	queryFetchTrainingRows = `
		SELECT
			l.price::float8,
			l.year::float8,
			l.mileage::float8,
			l.horsepower::float8,
			(l.scores->'sanity_checks'->>'k_scam')::float8,
			l.status,
			l.user_status,
			l.scores IS NOT NULL
		FROM listings l
		JOIN search_listings sl ON sl.listing_id = l.id
		WHERE sl.search_id = $1`
)

// Search queries.
const (
	queryCreateSearch = `
		INSERT INTO searches (
			name, query, min_year, max_year, min_price, max_price,
			active, created_at, updated_at
		) VALUES (
			@name, @query, @min_year, @max_year, @min_price, @max_price,
			@active, now(), now()
		)
		RETURNING id, created_at, updated_at`

	queryGetSearch = `
		SELECT id, name, query, min_year, max_year, min_price, max_price,
			active, model_meta, last_run_at, created_at, updated_at
		FROM searches
		WHERE id = $1`

	queryListSearchesAll = `
		SELECT id, name, query, min_year, max_year, min_price, max_price,
			active, model_meta, last_run_at, created_at, updated_at
		FROM searches
		ORDER BY created_at DESC`

	queryListSearchesActive = `
		SELECT id, name, query, min_year, max_year, min_price, max_price,
			active, model_meta, last_run_at, created_at, updated_at
		FROM searches
		WHERE active = true
		ORDER BY created_at DESC`

	queryUpdateSearch = `
		UPDATE searches SET
			name = @name,
			query = @query,
			min_year = @min_year,
			max_year = @max_year,
			min_price = @min_price,
			max_price = @max_price,
			active = @active,
			updated_at = now()
		WHERE id = @id`

	queryDeleteSearch = `DELETE FROM searches WHERE id = $1`

	querySetSearchActive = `
		UPDATE searches SET
			active = $2,
			updated_at = now()
		WHERE id = $1`

	queryUpdateSearchModelMeta = `
		UPDATE searches SET
			model_meta = $2,
			updated_at = now()
		WHERE id = $1`

	queryTouchSearchLastRun = `
		UPDATE searches SET last_run_at = $2 WHERE id = $1`
)

// Scheduler queries.
const (
	queryInsertJobRun = `
		INSERT INTO job_runs (job_name)
		VALUES ($1)
		RETURNING id`

	queryCompleteJobRun = `
		UPDATE job_runs SET
			completed_at  = now(),
			status        = $2,
			error_text    = $3,
			rows_affected = $4
		WHERE id = $1`

	queryListJobRuns = `
		SELECT id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2`

	queryListLatestJobRuns = `
		SELECT DISTINCT ON (job_name)
			id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		ORDER BY job_name, started_at DESC`
)
